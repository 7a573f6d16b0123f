package editorapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/responses"
)

type filesRes struct {
	Files  []editor.File `json:"files"`
	Status editor.Status `json:"status"`
}

func (a *API) writeFiles(w http.ResponseWriter, s *editor.Session) {
	responses.EncodeWriteJSON(w, http.StatusOK, filesRes{Files: s.Files(), Status: s.Status()})
}

func indexParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("i"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", editor.ErrIndexOutOfRange, r.PathValue("i"))
	}
	return i, nil
}

func (a *API) handleAddFiles(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	uploads, cleanup, err := a.parseUploads(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer cleanup()
	if _, err = s.AddFiles(r.Context(), uploads); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeFiles(w, s)
}

func (a *API) handleReplaceFile(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	i, err := indexParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	uploads, cleanup, err := a.parseUploads(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer cleanup()
	if len(uploads) != 1 {
		a.writeError(w, r, fmt.Errorf("%w: replace takes exactly one file, got %d", errBadRequest, len(uploads)))
		return
	}
	if _, err = s.ReplaceFile(r.Context(), i, uploads[0]); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeFiles(w, s)
}

func (a *API) handleRemoveFile(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	i, err := indexParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err = s.RemoveFile(i); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeFiles(w, s)
}

func (a *API) handleSwapFiles(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	var req struct {
		I int `json:"i"`
		J int `json:"j"`
	}
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := s.SwapFiles(req.I, req.J); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeFiles(w, s)
}
