package editorapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/responses"
)

type navigateRes struct {
	Generation uint64       `json:"generation"`
	State      editor.State `json:"state"`
}

// handleNavigate starts a page change. Without a server-side rasterizer the client
// paints the page and reports it with POST rendered carrying the same generation.
func (a *API) handleNavigate(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Page int `json:"page"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	gen, err := s.Navigate(r.Context(), req.Page)
	if err != nil && gen == 0 {
		a.writeError(w, r, err)
		return
	}
	if err != nil && !errors.Is(err, editor.ErrStale) {
		// navigation began; the render failure is in the status line
		log.Printf("[WARN][EditorAPI] %s: %v", s.ID(), err)
	}
	responses.EncodeWriteJSON(w, http.StatusOK, navigateRes{Generation: gen, State: s.Snapshot()})
}

func (a *API) handleRendered(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Generation uint64  `json:"generation"`
		Width      float64 `json:"width"`  // natural page width, points
		Height     float64 `json:"height"` // natural page height, points
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		a.writeError(w, r, fmt.Errorf("%w: page size %vx%v", errBadRequest, req.Width, req.Height))
		return
	}
	if err := s.CompletePageRender(r.Context(), req.Generation, coords.Size{Width: req.Width, Height: req.Height}); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

func (a *API) handleViewport(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Width     float64 `json:"width"`
		PageCount *int    `json:"page_count,omitempty"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.PageCount != nil {
		s.SetPageCount(*req.PageCount)
	}
	if req.Width > 0 {
		if _, err := s.SetViewport(r.Context(), req.Width); err != nil {
			log.Printf("[WARN][EditorAPI] %s: viewport repaint: %v", s.ID(), err)
		}
	}
	a.writeState(w, s)
}

func (a *API) handleZoom(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	// a painted page goes back to not-ready; the client repaints and reports
	// POST rendered with the generation carried in the state
	if _, _, err := s.Zoom(r.Context(), req.Delta); err != nil {
		log.Printf("[WARN][EditorAPI] %s: zoom repaint: %v", s.ID(), err)
	}
	a.writeState(w, s)
}

func pageParam(r *http.Request) (int, error) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", editor.ErrPageOutOfRange, r.PathValue("n"))
	}
	return n, nil
}

type pageRes struct {
	Page   editor.PageConfig   `json:"page"`
	Pages  []editor.PageConfig `json:"pages_config"`
	Status editor.Status       `json:"status"`
}

func (a *API) handleRotatePage(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	n, err := pageParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req struct {
		Angle int `json:"angle"`
	}
	if err = decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := s.RotatePage(n, req.Angle)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, pageRes{Page: c, Pages: s.PageConfigs(), Status: s.Status()})
}

func (a *API) handleDeletePage(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	n, err := pageParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := s.DeletePage(n)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, pageRes{Page: c, Pages: s.PageConfigs(), Status: s.Status()})
}

func (a *API) handleResetPage(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	n, err := pageParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	s.ResetPage(n)
	responses.EncodeWriteJSON(w, http.StatusOK, pageRes{Page: editor.PageConfig{PageNum: n}, Pages: s.PageConfigs(), Status: s.Status()})
}
