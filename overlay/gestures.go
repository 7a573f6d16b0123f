package overlay

import (
	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/layers"
)

type gestureKind int

const (
	gestureStroke gestureKind = iota + 1
	gestureMove
)

// gesture - an open pointer interaction. Points are page space.
type gesture struct {
	kind   gestureKind
	brush  Brush
	points []vec.Vec2
	last   vec.Vec2
}

// PointerDown delivers a press at a pixel position of the current page.
// It returns true when the event changed anything.
func (r *Renderer) PointerDown(px vec.Vec2) bool {
	if !r.pageReady || r.mode == ModeInactive {
		return false
	}
	p := r.mapper.ToPage(px)

	switch r.mode {
	case ModeTextInsert:
		r.AddTextBox(px, "")
		r.SetActiveTool(ToolSelect)
		return true
	case ModeFreeDraw:
		r.gesture = &gesture{kind: gestureStroke, brush: DrawBrush, points: []vec.Vec2{p}}
		return true
	case ModeHighlight:
		r.gesture = &gesture{kind: gestureStroke, brush: HighlightBrush, points: []vec.Vec2{p}}
		return true
	case ModeInspect:
		// regions sit above the layers
		if r.caps.Inspector != nil && r.caps.Inspector.PointerDown(p) {
			return true
		}
	}

	hit := r.surface.TopmostAt(r.page, p)
	if hit == nil {
		had := r.selected != ""
		r.Deselect()
		return had
	}
	r.Select(hit.ID)
	r.gesture = &gesture{kind: gestureMove, last: p}
	return true
}

// PointerMove extends a stroke or drags the selection
func (r *Renderer) PointerMove(px vec.Vec2) bool {
	if r.gesture == nil {
		return false
	}
	p := r.mapper.ToPage(px)
	switch r.gesture.kind {
	case gestureStroke:
		r.gesture.points = append(r.gesture.points, p)
		return true
	case gestureMove:
		l, ok := r.Selected()
		if !ok {
			r.gesture = nil
			return false
		}
		l.Translate(p.X-r.gesture.last.X, p.Y-r.gesture.last.Y)
		r.gesture.last = p
		return true
	}
	return false
}

// PointerUp closes the gesture. A finished stroke becomes a path layer, which is returned.
func (r *Renderer) PointerUp(px vec.Vec2) *layers.Layer {
	g := r.gesture
	r.gesture = nil
	if g == nil || g.kind != gestureStroke {
		return nil
	}
	g.points = append(g.points, r.mapper.ToPage(px))
	l := layers.NewPath(layers.Path{
		Commands:    layers.PathFromPoints(g.points),
		Stroke:      g.brush.Color,
		StrokeWidth: g.brush.Width,
	})
	return r.AddLayer(l)
}

// Hover forwards pointer movement to the inspector while it is active
func (r *Renderer) Hover(px vec.Vec2) {
	if r.mode != ModeInspect || r.caps.Inspector == nil || !r.pageReady {
		return
	}
	r.caps.Inspector.Hover(r.mapper.ToPage(px))
}
