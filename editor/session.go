package editor

import (
	"context"
	"sync"
	"time"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/inspector"
	"github.com/zeptools/gw-pdfedit/layers"
	"github.com/zeptools/gw-pdfedit/overlay"
)

// Status is the user-facing status line of a session
type Status struct {
	Message string             `json:"message"`
	Kind    overlay.StatusKind `json:"kind"`
}

// Record is the persisted part of a session
type Record struct {
	ID          string       `json:"id"`
	Tool        string       `json:"tool"`
	Files       []File       `json:"files"`
	Page        int          `json:"page"`
	Zoom        float64      `json:"zoom"`
	PagesConfig []PageConfig `json:"pages_config"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Session is the EditorSession controller: it owns the overlay surface, the renderer,
// the inspector engine and the view state of one editing context.
// All methods are safe for concurrent use. Network calls run without the lock held;
// their results are applied only if the session generation did not move meanwhile.
type Session struct {
	mu    sync.Mutex
	id    string
	tool  ToolConfig
	deps  Deps
	locks *sync.Map // action locks shared by the hub

	files     []File
	zoom      coords.Zoom
	page      int
	pageCount int // 0 = unknown
	natural   coords.Size
	viewport  float64
	gen       uint64
	pages     PageConfigs
	status    Status

	surface   *overlay.Surface
	renderer  *overlay.Renderer
	inspector *inspector.Engine

	createdAt  time.Time
	lastActive time.Time
	now        func() time.Time
}

func newSession(id string, tool ToolConfig, files []File, deps Deps, locks *sync.Map) *Session {
	if locks == nil {
		locks = &sync.Map{}
	}
	deps.Limits = deps.Limits.withDefaults()
	s := &Session{
		id:      id,
		tool:    tool,
		deps:    deps,
		locks:   locks,
		files:   append([]File(nil), files...),
		zoom:    1,
		page:    1,
		surface: overlay.NewSurface(layers.NewIDGenerator()),
		now:     time.Now,
	}
	s.createdAt = s.now()
	s.lastActive = s.createdAt
	s.renderer = overlay.NewRenderer(s.surface)
	s.inspector = inspector.NewEngine(inspector.AnalyzerFunc(s.analyze), s.renderer, s.setStatus)
	s.renderer.Attach(overlay.Capabilities{
		Inspector: s.inspector,
		Status:    s.setStatus,
	})
	if tool.HasOverlay() {
		s.renderer.SetActiveTool(overlay.ToolSelect)
	}
	return s
}

// restoreSession rebuilds a session from its record. The overlay starts empty.
func restoreSession(rec Record, tool ToolConfig, deps Deps, locks *sync.Map) *Session {
	s := newSession(rec.ID, tool, rec.Files, deps, locks)
	if rec.Page > 0 {
		s.page = rec.Page
		s.renderer.SetPage(rec.Page)
	}
	s.zoom = coords.ClampZoom(rec.Zoom)
	s.pages.entries = append(s.pages.entries, rec.PagesConfig...)
	if !rec.CreatedAt.IsZero() {
		s.createdAt = rec.CreatedAt
	}
	return s
}

func (s *Session) analyze(ctx context.Context, page int) ([]inspector.TextBlock, error) {
	return s.deps.Backend.Analyze(ctx, s.id, page)
}

// lock also marks the session active
func (s *Session) lock() {
	s.mu.Lock()
	s.lastActive = s.now()
}

func (s *Session) unlock() {
	s.mu.Unlock()
}

// setStatus is the StatusFunc of the renderer and inspector. Called with the lock held.
func (s *Session) setStatus(msg string, kind overlay.StatusKind) {
	s.status = Status{Message: msg, Kind: kind}
}

func (s *Session) statusLocked(msg string, kind overlay.StatusKind) {
	s.lock()
	s.setStatus(msg, kind)
	s.unlock()
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Tool() ToolConfig {
	return s.tool
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Record{
		ID:          s.id,
		Tool:        s.tool.ID,
		Files:       append([]File(nil), s.files...),
		Page:        s.page,
		Zoom:        float64(s.zoom),
		PagesConfig: s.pages.List(),
		CreatedAt:   s.createdAt,
	}
}

// refreshScale recomputes the effective render scale. Called with the lock held.
func (s *Session) refreshScale() {
	s.renderer.SetScale(s.renderScale())
}

func (s *Session) renderScale() float64 {
	return s.zoom.Apply(coords.FitScale(s.natural, s.viewport))
}
