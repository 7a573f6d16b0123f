package editor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/export"
	"github.com/zeptools/gw-pdfedit/inspector"
	"github.com/zeptools/gw-pdfedit/overlay"
)

// BeginNavigation moves the session to a page and returns the new generation.
// The overlay stays hidden until CompletePageRender reports the same generation.
func (s *Session) BeginNavigation(page int) (uint64, error) {
	s.lock()
	defer s.unlock()
	if page < 1 || (s.pageCount > 0 && page > s.pageCount) {
		return 0, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	s.gen++
	s.page = page
	s.renderer.SetPage(page)
	s.renderer.SetPageReady(false)
	s.inspector.Deactivate()
	return s.gen, nil
}

// CompletePageRender marks the page of generation gen as painted.
// A superseded generation returns ErrStale and changes nothing.
func (s *Session) CompletePageRender(ctx context.Context, gen uint64, natural coords.Size) error {
	s.lock()
	if gen != s.gen {
		s.unlock()
		return ErrStale
	}
	s.natural = natural
	s.refreshScale()
	s.renderer.SetPageReady(true)
	s.unlock()

	// the page itself is ready even if its analysis fails
	if err := s.activateInspector(ctx); err != nil && !errors.Is(err, ErrStale) {
		log.Printf("[ERROR][Editor] %s: inspector on page %d: %v", s.id, s.Page(), err)
	}
	return nil
}

// Navigate renders a page through the session's Rasterizer.
// Without one it only begins the navigation and the caller reports the render.
func (s *Session) Navigate(ctx context.Context, page int) (uint64, error) {
	gen, err := s.BeginNavigation(page)
	if err != nil {
		return 0, err
	}
	return gen, s.paint(ctx, gen, page)
}

// paint renders generation gen of a page through the Rasterizer, if there is one
func (s *Session) paint(ctx context.Context, gen uint64, page int) error {
	r := s.deps.Rasterizer
	if r == nil {
		return nil
	}
	natural, err := r.NaturalSize(ctx, page)
	if err != nil {
		s.statusLocked("Failed to load page", overlay.StatusError)
		return fmt.Errorf("natural size of page %d: %w", page, err)
	}
	s.lock()
	scale := s.zoom.Apply(coords.FitScale(natural, s.viewport))
	s.unlock()
	if err = r.Render(ctx, page, scale); err != nil {
		s.statusLocked("Failed to render page", overlay.StatusError)
		return fmt.Errorf("render page %d: %w", page, err)
	}
	return s.CompletePageRender(ctx, gen, natural)
}

func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// SetPageCount records the page count of the active document, 0 if unknown
func (s *Session) SetPageCount(n int) {
	s.lock()
	defer s.unlock()
	s.pageCount = max(n, 0)
}

// Zoom changes the zoom factor by delta, rounded and clamped to [MinZoom, MaxZoom].
// Layers live in page space and keep their positions; the page is repainted at
// the new scale like a navigation to the current page.
func (s *Session) Zoom(ctx context.Context, delta float64) (coords.Zoom, uint64, error) {
	s.lock()
	s.zoom = s.zoom.Add(delta)
	z := s.zoom
	gen, page, repaint := s.rescaleLocked()
	s.unlock()
	if !repaint {
		return z, gen, nil
	}
	return z, gen, s.paint(ctx, gen, page)
}

// SetViewport records the width of the editing container in pixels
func (s *Session) SetViewport(ctx context.Context, width float64) (uint64, error) {
	s.lock()
	s.viewport = width
	gen, page, repaint := s.rescaleLocked()
	s.unlock()
	if !repaint {
		return gen, nil
	}
	return gen, s.paint(ctx, gen, page)
}

// rescaleLocked applies a zoom or viewport change. When the scale of a painted
// page moved it begins a new generation: the overlay hides until that generation
// is rendered and late results for the old scale are dropped.
func (s *Session) rescaleLocked() (gen uint64, page int, repaint bool) {
	old := s.renderer.Mapper().Scale
	s.refreshScale()
	if s.natural == (coords.Size{}) || s.renderer.Mapper().Scale == old {
		return s.gen, s.page, false
	}
	s.gen++
	s.renderer.SetPageReady(false)
	s.inspector.Deactivate()
	return s.gen, s.page, true
}

func (s *Session) RotatePage(page, angle int) (PageConfig, error) {
	if page < 1 {
		return PageConfig{}, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	s.lock()
	defer s.unlock()
	c := s.pages.Rotate(page, angle)
	s.setStatus(fmt.Sprintf("Page %d rotated.", page), overlay.StatusNormal)
	return c, nil
}

func (s *Session) DeletePage(page int) (PageConfig, error) {
	if page < 1 {
		return PageConfig{}, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	s.lock()
	defer s.unlock()
	c := s.pages.Delete(page)
	s.setStatus(fmt.Sprintf("Page %d marked for deletion.", page), overlay.StatusNormal)
	return c, nil
}

// ResetPage forgets the rotation and deletion intent of a page
func (s *Session) ResetPage(page int) bool {
	s.lock()
	defer s.unlock()
	ok := s.pages.Reset(page)
	if ok {
		s.setStatus(fmt.Sprintf("Page %d reset.", page), overlay.StatusNormal)
	}
	return ok
}

func (s *Session) PageConfigs() []PageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.List()
}

// State is a snapshot of everything the UI draws
type State struct {
	SessionID   string                 `json:"session_id"`
	Tool        ToolConfig             `json:"tool"`
	ActiveTool  overlay.Tool           `json:"active_tool"`
	Mode        string                 `json:"mode"`
	Files       []File                 `json:"files"`
	Page        int                    `json:"page"`
	PageCount   int                    `json:"page_count,omitempty"`
	Generation  uint64                 `json:"generation"`
	PageReady   bool                   `json:"page_ready"`
	ZoomPercent int                    `json:"zoom_percent"`
	Scale       float64                `json:"scale"`
	Natural     coords.Size            `json:"natural"`
	Status      Status                 `json:"status"`
	Objects     []overlay.Drawable     `json:"objects"`
	Regions     []inspector.RegionView `json:"regions"`
	Selected    *overlay.Panel         `json:"selected,omitempty"`
	PagesConfig []PageConfig           `json:"pages_config"`
	LayerCount  int                    `json:"layer_count"`
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		SessionID:   s.id,
		Tool:        s.tool,
		ActiveTool:  s.renderer.Tool(),
		Mode:        s.renderer.Mode().String(),
		Files:       append([]File{}, s.files...),
		Page:        s.page,
		PageCount:   s.pageCount,
		Generation:  s.gen,
		PageReady:   s.renderer.PageReady(),
		ZoomPercent: s.zoom.Percent(),
		Scale:       s.renderer.Mapper().Scale,
		Natural:     s.natural,
		Status:      s.status,
		Objects:     s.renderer.Render(),
		Regions:     s.inspector.View(s.renderer.Mapper()),
		PagesConfig: s.pages.List(),
		LayerCount:  s.surface.Len(),
	}
	if st.Objects == nil {
		st.Objects = []overlay.Drawable{}
	}
	if p, ok := s.renderer.Panel(); ok {
		st.Selected = &p
	}
	return st
}

// exportLocked is used by Submit. Called with the lock held.
func (s *Session) exportLocked() ([]export.Layer, error) {
	return export.Layers(s.surface.Objects())
}
