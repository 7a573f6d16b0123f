package editorapi

import (
	"net/http"

	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/responses"
)

type redirectRes struct {
	Success     bool          `json:"success"`
	RedirectURL string        `json:"redirect_url"`
	Status      editor.Status `json:"status"`
}

// handleSubmit burns the overlay layers into the document on the backend
func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	redirect, err := s.Submit(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, redirectRes{Success: true, RedirectURL: redirect, Status: s.Status()})
}

// handleProcess runs the session tool with the page grid edits
func (a *API) handleProcess(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	redirect, err := s.Process(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, redirectRes{Success: true, RedirectURL: redirect, Status: s.Status()})
}
