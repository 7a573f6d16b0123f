package editorapi

import (
	"context"
	"log"
	"net/http"

	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/requests"
	"github.com/zeptools/gw-pdfedit/responses"
	"github.com/zeptools/gw-pdfedit/routing"
	"github.com/zeptools/gw-pdfedit/sec"
	"github.com/zeptools/gw-pdfedit/throttle"
	"github.com/zeptools/gw-pdfedit/web/session"
)

// Throttle bucket groups
const (
	GroupAnalyze = "analyze"
	GroupSubmit  = "submit"
)

const (
	MaxJSONBytes      = 8 << 20 // image data urls travel in json bodies
	MultipartMemBytes = 32 << 20
)

// API exposes editor sessions over HTTP
type API struct {
	Hub      *editor.Hub
	Sessions *session.Manager              // optional. cookie for the current session
	Throttle *throttle.BucketStore[string] // optional
	JWKS     *sec.JWKS                     // optional. public keys of the service token signer
	Limits   editor.Limits
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *editor.Session)

// Register mounts every route on the router
func (a *API) Register(router routing.Router) {
	analyze := a.throttled(GroupAnalyze)
	submit := a.throttled(GroupSubmit)

	if a.JWKS != nil {
		router.HandleFunc("GET /.well-known/jwks.json", a.handleJWKS)
	}

	router.Group("/editor/", func(g *routing.RouteGroup) {
		g.HandleFunc("POST sessions", a.handleCreateSession)
		g.HandleFunc("GET current", a.handleCurrentSession)
		g.HandleFunc("DELETE {sid}", a.handleCloseSession)

		g.Group("{sid}/", func(sg *routing.RouteGroup) {
			sg.HandleFunc("GET state", a.withSession(a.handleState, false))

			// overlay
			sg.HandleFunc("POST tool", a.withSession(a.handleTool, false), analyze...)
			sg.HandleFunc("POST text", a.withSession(a.handleText, false))
			sg.HandleFunc("POST image", a.withSession(a.handleImage, false))
			sg.HandleFunc("POST signature", a.withSession(a.handleSignature, false))
			sg.HandleFunc("POST pointer", a.withSession(a.handlePointer, false))
			sg.HandleFunc("POST hover", a.withSession(a.handleHover, false))
			sg.HandleFunc("POST select", a.withSession(a.handleSelect, false))
			sg.HandleFunc("POST edit", a.withSession(a.handleEdit, false))
			sg.HandleFunc("POST property", a.withSession(a.handleProperty, false))
			sg.HandleFunc("POST transform", a.withSession(a.handleTransform, false))
			sg.HandleFunc("DELETE selected", a.withSession(a.handleDeleteSelected, false))
			sg.HandleFunc("DELETE layers", a.withSession(a.handleClearCanvas, false))
			sg.HandleFunc("GET layers", a.withSession(a.handleExportLayers, false))

			// view
			sg.HandleFunc("POST navigate", a.withSession(a.handleNavigate, true), analyze...)
			sg.HandleFunc("POST rendered", a.withSession(a.handleRendered, false), analyze...)
			sg.HandleFunc("POST viewport", a.withSession(a.handleViewport, false))
			sg.HandleFunc("POST zoom", a.withSession(a.handleZoom, true))
			sg.HandleFunc("POST pages/{n}/rotate", a.withSession(a.handleRotatePage, true))
			sg.HandleFunc("POST pages/{n}/delete", a.withSession(a.handleDeletePage, true))
			sg.HandleFunc("POST pages/{n}/reset", a.withSession(a.handleResetPage, true))

			// files
			sg.HandleFunc("POST files", a.withSession(a.handleAddFiles, true))
			sg.HandleFunc("PUT files/{i}", a.withSession(a.handleReplaceFile, true))
			sg.HandleFunc("DELETE files/{i}", a.withSession(a.handleRemoveFile, true))
			sg.HandleFunc("POST files/swap", a.withSession(a.handleSwapFiles, true))

			// backend
			sg.HandleFunc("POST submit", a.withSession(a.handleSubmit, false), submit...)
			sg.HandleFunc("POST process", a.withSession(a.handleProcess, false), submit...)
		})
	})
}

func (a *API) throttled(group string) []routing.HandlerWrapper {
	if a.Throttle == nil {
		return nil
	}
	return []routing.HandlerWrapper{&throttle.Wrapper{Store: a.Throttle, Group: group, Key: requests.GetClientIP}}
}

// withSession resolves {sid}. With persist, the session record is saved after a successful handler.
func (a *API) withSession(h sessionHandler, persist bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := r.PathValue("sid")
		s, err := a.Hub.Get(r.Context(), sid)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		r = r.WithContext(session.WithEditorSessionID(r.Context(), sid))
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(rec, r, s)
		if persist && rec.status < 300 {
			a.persist(r.Context(), s)
		}
	}
}

func (a *API) persist(ctx context.Context, s *editor.Session) {
	if err := a.Hub.Save(ctx, s); err != nil {
		log.Printf("[ERROR][EditorAPI] %v", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *API) writeState(w http.ResponseWriter, s *editor.Session) {
	responses.EncodeWriteJSON(w, http.StatusOK, s.Snapshot())
}

func (a *API) handleJWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	responses.EncodeWriteJSON(w, http.StatusOK, a.JWKS)
}
