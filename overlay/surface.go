package overlay

import (
	"slices"

	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/layers"
)

// Surface is the live object set of the editing session and the only place layers
// are stored. Slice order is stacking order (last = topmost) and export order.
type Surface struct {
	objects []*layers.Layer
	ids     *layers.IDGenerator
}

func NewSurface(ids *layers.IDGenerator) *Surface {
	if ids == nil {
		ids = layers.NewIDGenerator()
	}
	return &Surface{ids: ids}
}

// Add assigns a fresh id and appends the layer on top
func (s *Surface) Add(l *layers.Layer) *layers.Layer {
	l.ID = s.ids.Next()
	s.objects = append(s.objects, l)
	return l
}

func (s *Surface) Remove(id layers.ID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	return true
}

// Clear removes every layer and returns how many were removed
func (s *Surface) Clear() int {
	n := len(s.objects)
	s.objects = nil
	return n
}

func (s *Surface) Len() int {
	return len(s.objects)
}

func (s *Surface) Find(id layers.ID) (*layers.Layer, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.objects[i], true
}

// Objects returns the live layers in stacking order. The slice is a copy, the layers are not.
func (s *Surface) Objects() []*layers.Layer {
	return slices.Clone(s.objects)
}

// TopmostAt hit-tests the selectable layers of a page from the top down
func (s *Surface) TopmostAt(page int, p vec.Vec2) *layers.Layer {
	for i := len(s.objects) - 1; i >= 0; i-- {
		l := s.objects[i]
		if l.Page != page || !l.Selectable {
			continue
		}
		if l.Contains(p) {
			return l
		}
	}
	return nil
}

func (s *Surface) indexOf(id layers.ID) int {
	return slices.IndexFunc(s.objects, func(l *layers.Layer) bool { return l.ID == id })
}

// Index is a read-only view derived from one walk of the surface.
// It is rebuilt on demand and never mutated on its own.
type Index struct {
	Order  []layers.ID
	ByID   map[layers.ID]*layers.Layer
	ByPage map[int][]*layers.Layer
}

func (s *Surface) Index() Index {
	idx := Index{
		Order:  make([]layers.ID, 0, len(s.objects)),
		ByID:   make(map[layers.ID]*layers.Layer, len(s.objects)),
		ByPage: make(map[int][]*layers.Layer),
	}
	for _, l := range s.objects {
		idx.Order = append(idx.Order, l.ID)
		idx.ByID[l.ID] = l
		idx.ByPage[l.Page] = append(idx.ByPage[l.Page], l)
	}
	return idx
}
