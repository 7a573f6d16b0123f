package editorapi

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/responses"
)

type createSessionReq struct {
	Tool      string        `json:"tool"`
	SessionID string        `json:"session_id,omitempty"` // adopt a session the backend already created
	Files     []editor.File `json:"files,omitempty"`
}

type createSessionRes struct {
	SessionID string       `json:"session_id"`
	State     editor.State `json:"state"`
}

// handleCreateSession accepts json, or multipart with a `tool` field and `files[]` parts
func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var (
		req     createSessionReq
		uploads []editor.Upload
		cleanup = func() {}
		err     error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		uploads, cleanup, err = a.parseUploads(w, r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		req.Tool = r.FormValue("tool")
	} else if err = decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	defer cleanup()

	var s *editor.Session
	if req.SessionID != "" {
		s, err = a.Hub.Adopt(r.Context(), req.SessionID, req.Tool, req.Files)
	} else {
		s, err = a.Hub.Create(r.Context(), req.Tool, req.Files)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(uploads) > 0 {
		if _, err = s.AddFiles(r.Context(), uploads); err != nil {
			if closeErr := a.Hub.Close(r.Context(), s.ID()); closeErr != nil {
				log.Printf("[WARN][EditorAPI] %v", closeErr)
			}
			a.writeError(w, r, err)
			return
		}
		a.persist(r.Context(), s)
	}
	if a.Sessions != nil {
		if err = a.Sessions.SetSessionCookie(w, s.ID()); err != nil {
			log.Printf("[ERROR][EditorAPI] %v", err)
		}
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, createSessionRes{SessionID: s.ID(), State: s.Snapshot()})
}

// handleCurrentSession resumes the session named by the cookie
func (a *API) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	if a.Sessions == nil {
		responses.WriteErrorJSON(w, http.StatusNotFound, responses.CodeUnknownSession, editor.ErrUnknownSession.Error())
		return
	}
	sid, err := a.Sessions.SessionIDFromCookie(r)
	if err != nil {
		responses.WriteErrorJSON(w, http.StatusNotFound, responses.CodeUnknownSession, editor.ErrUnknownSession.Error())
		return
	}
	s, err := a.Hub.Get(r.Context(), sid)
	if err != nil {
		a.Sessions.RemoveSessionCookie(w)
		a.writeError(w, r, err)
		return
	}
	a.writeState(w, s)
}

func (a *API) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Hub.Close(r.Context(), r.PathValue("sid")); err != nil {
		a.writeError(w, r, err)
		return
	}
	if a.Sessions != nil {
		a.Sessions.RemoveSessionCookie(w)
	}
	responses.WriteOK(w, "session closed")
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request, s *editor.Session) {
	a.writeState(w, s)
}

// parseUploads reads the `files[]` (or `files`) parts of a multipart body.
// The returned cleanup closes the parts and removes spooled temp files.
func (a *API) parseUploads(w http.ResponseWriter, r *http.Request) ([]editor.Upload, func(), error) {
	limit := a.Limits.MaxUploadBytes
	if limit <= 0 {
		limit = editor.DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, 10*limit+(1<<20))
	if err := r.ParseMultipartForm(MultipartMemBytes); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	headers := r.MultipartForm.File["files[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}
	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Printf("[WARN][EditorAPI] multipart cleanup: %v", err)
		}
	}
	uploads := make([]editor.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, editor.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, cleanup, nil
}
