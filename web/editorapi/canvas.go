package editorapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/layers"
	"github.com/zeptools/gw-pdfedit/overlay"
	"github.com/zeptools/gw-pdfedit/responses"
)

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p point) vec() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

func (a *API) handleTool(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Tool overlay.Tool `json:"tool"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	// a failed analysis leaves the tool active, the state carries the error status
	if err := s.SetActiveTool(r.Context(), req.Tool); err != nil && !errors.Is(err, editor.ErrStale) {
		log.Printf("[WARN][EditorAPI] %s: text analysis: %v", s.ID(), err)
	}
	a.writeState(w, s)
}

func (a *API) handleText(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		point
		Text string `json:"text,omitempty"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := s.AddTextBox(req.vec(), req.Text); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

type srcReq struct {
	Src string `json:"src"`
}

func (a *API) handleImage(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req srcReq
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := s.AddImage(req.Src); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

func (a *API) handleSignature(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req srcReq
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := s.AddSignature(req.Src); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

func (a *API) handlePointer(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Phase editor.PointerPhase `json:"phase"`
		point
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := s.Pointer(req.Phase, req.vec()); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	a.writeState(w, s)
}

func (a *API) handleHover(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req point
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	s.Hover(req.vec())
	a.writeState(w, s)
}

// handleSelect with an empty id deselects
func (a *API) handleSelect(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		ID layers.ID `json:"id"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.ID == "" {
		s.Deselect()
	} else if !s.Select(req.ID) {
		a.writeError(w, r, fmt.Errorf("%w: %s", overlay.ErrNotFound, req.ID))
		return
	}
	a.writeState(w, s)
}

func (a *API) handleEdit(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if !s.EditText(req.Text) {
		a.writeError(w, r, overlay.ErrNoSelection)
		return
	}
	a.writeState(w, s)
}

func (a *API) handleProperty(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := s.SetProperty(req.Name, req.Value); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

func (a *API) handleTransform(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		ID layers.ID `json:"id"`
		overlay.PixelTransform
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := s.SetTransform(req.ID, req.PixelTransform); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

func (a *API) handleDeleteSelected(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	s.DeleteSelected()
	a.writeState(w, s)
}

func (a *API) handleClearCanvas(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	s.ClearCanvas()
	a.writeState(w, s)
}

// handleExportLayers writes the layer payload the backend receives on submit
func (a *API) handleExportLayers(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	b, err := s.ExportLayersJSON()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.WriteJSONBytes(w, http.StatusOK, b)
}
