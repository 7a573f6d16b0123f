package editor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/export"
	"github.com/zeptools/gw-pdfedit/imgsrc"
	"github.com/zeptools/gw-pdfedit/layers"
	"github.com/zeptools/gw-pdfedit/overlay"
)

// SetActiveTool switches the overlay tool. Entering the text-edit tool loads the
// text blocks of the current page; a result that arrives after the user navigated
// or left the tool is dropped. Unknown tools are ignored.
func (s *Session) SetActiveTool(ctx context.Context, tool overlay.Tool) error {
	s.lock()
	ok := s.renderer.SetActiveTool(tool)
	s.unlock()
	if !ok {
		return nil
	}
	return s.activateInspector(ctx)
}

func (s *Session) activateInspector(ctx context.Context) error {
	s.lock()
	if !s.renderer.InInspectMode() || !s.renderer.PageReady() {
		s.unlock()
		return nil
	}
	page, gen := s.page, s.gen
	s.setStatus("Analyzing page text...", overlay.StatusNormal)
	s.unlock()

	blocks, err := s.inspector.Load(ctx, page)

	s.lock()
	defer s.unlock()
	if gen != s.gen {
		log.Printf("[INFO][Editor] %s: analysis of page %d discarded, generation moved", s.id, page)
		return ErrStale
	}
	if err != nil {
		s.inspector.Fail(page, err)
		return err
	}
	if err = s.inspector.Show(page, blocks); err != nil {
		log.Printf("[INFO][Editor] %s: analysis of page %d discarded: %v", s.id, page, err)
		return err
	}
	return nil
}

// AddTextBox places a text box at a pixel position of the current page
func (s *Session) AddTextBox(px vec.Vec2, text string) (*layers.Layer, error) {
	s.lock()
	defer s.unlock()
	if !s.renderer.PageReady() {
		return nil, ErrPageNotReady
	}
	l := s.renderer.AddTextBox(px, text)
	s.setStatus("Text added", overlay.StatusSuccess)
	return l.Clone(), nil
}

// AddImage places an embedded image on the current page
func (s *Session) AddImage(src string) (*layers.Layer, error) {
	return s.addImage(src, "Image added")
}

// AddSignature places a drawn, typed or uploaded signature. All three arrive as image data URLs.
func (s *Session) AddSignature(src string) (*layers.Layer, error) {
	return s.addImage(src, "Signature added")
}

func (s *Session) addImage(src, done string) (*layers.Layer, error) {
	if !imgsrc.IsSelfContained(src) {
		return nil, ErrNotSelfContained
	}
	w, h, _, err := imgsrc.Dimensions(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	s.lock()
	defer s.unlock()
	if !s.renderer.PageReady() {
		return nil, ErrPageNotReady
	}
	l := s.renderer.AddImage(layers.Image{Src: src, Width: float64(w), Height: float64(h)})
	s.setStatus(done, overlay.StatusSuccess)
	return l.Clone(), nil
}

type PointerPhase string

const (
	PointerDown PointerPhase = "down"
	PointerMove PointerPhase = "move"
	PointerUp   PointerPhase = "up"
)

// Pointer delivers a pointer event in pixel space. A press on an inspector region
// converts it in place.
func (s *Session) Pointer(phase PointerPhase, px vec.Vec2) (bool, error) {
	s.lock()
	defer s.unlock()
	switch phase {
	case PointerDown:
		return s.renderer.PointerDown(px), nil
	case PointerMove:
		return s.renderer.PointerMove(px), nil
	case PointerUp:
		return s.renderer.PointerUp(px) != nil, nil
	}
	return false, fmt.Errorf("unknown pointer phase %q", phase)
}

func (s *Session) Hover(px vec.Vec2) {
	s.lock()
	defer s.unlock()
	s.renderer.Hover(px)
}

// Select makes an object of the current page active. Missing objects are a no-op.
func (s *Session) Select(id layers.ID) bool {
	s.lock()
	defer s.unlock()
	return s.renderer.Select(id)
}

func (s *Session) Deselect() {
	s.lock()
	defer s.unlock()
	s.renderer.Deselect()
}

func (s *Session) EditText(content string) bool {
	s.lock()
	defer s.unlock()
	return s.renderer.EditText(content)
}

func (s *Session) SetProperty(name string, value any) error {
	s.lock()
	defer s.unlock()
	return s.renderer.SetProperty(name, value)
}

func (s *Session) SetTransform(id layers.ID, t overlay.PixelTransform) error {
	s.lock()
	defer s.unlock()
	return s.renderer.SetTransform(id, t)
}

// DeleteSelected removes the active object. Nothing selected is a no-op.
func (s *Session) DeleteSelected() (layers.ID, bool) {
	s.lock()
	defer s.unlock()
	id, err := s.renderer.DeleteSelected()
	if errors.Is(err, overlay.ErrNoSelection) {
		return "", false
	}
	return id, err == nil
}

// ClearCanvas removes every layer of the session, on all pages
func (s *Session) ClearCanvas() int {
	s.lock()
	defer s.unlock()
	n := s.renderer.ClearCanvas()
	s.setStatus("Canvas cleared", overlay.StatusNormal)
	return n
}

// Layers returns copies of the live layers in stacking order
func (s *Session) Layers() []*layers.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	objs := s.surface.Objects()
	out := make([]*layers.Layer, len(objs))
	for i, l := range objs {
		out[i] = l.Clone()
	}
	return out
}

// ExportLayers serializes the live object set. No objects is an empty list.
func (s *Session) ExportLayers() ([]export.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Layers(s.surface.Objects())
}

func (s *Session) ExportLayersJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.JSON(s.surface.Objects())
}
