package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/zeptools/gw-pdfedit/sec"
	"github.com/zeptools/gw-pdfedit/svc"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
	sessionIDBytes       = 16
)

// Hub is the registry of live editor sessions.
// It runs as a service that evicts idle sessions from memory; their records stay in the
// Store until it expires them, so a returning user gets the session back without the overlay.
type Hub struct {
	Ctx    context.Context
	cancel context.CancelFunc
	state  int
	done   chan error

	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
	store    Store // optional
	locks    sync.Map
	idle     time.Duration
	sweep    time.Duration
	newID    func() (string, error)
	now      func() time.Time
}

// Ensure Hub implements svc.Service
var _ svc.Service = (*Hub)(nil)

func NewHub(parentCtx context.Context, deps Deps, store Store, idle time.Duration) *Hub {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &Hub{
		Ctx:      ctx,
		cancel:   cancel,
		state:    svc.StateREADY,
		done:     make(chan error, 1),
		sessions: make(map[string]*Session),
		deps:     deps,
		store:    store,
		idle:     idle,
		sweep:    min(DefaultSweepInterval, idle),
		newID:    func() (string, error) { return sec.GenerateOpaqueToken(sessionIDBytes) },
		now:      time.Now,
	}
}

func (h *Hub) Name() string {
	return "EditorHub"
}

func (h *Hub) Start() error {
	if h.deps.Backend == nil {
		return errors.New("editor hub: no document backend")
	}
	h.state = svc.StateRUNNING
	go h.run()
	return nil
}

func (h *Hub) Stop() {
	h.cancel()
	h.state = svc.StateSTOPPED
	log.Println("[INFO][EditorHub] service stopped")
}

func (h *Hub) Done() <-chan error {
	return h.done
}

func (h *Hub) run() {
	ticker := time.NewTicker(h.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-h.Ctx.Done():
			h.done <- nil
			return
		case <-ticker.C:
			if n := h.Reap(); n > 0 {
				log.Printf("[INFO][EditorHub] evicted %d idle sessions", n)
			}
		}
	}
}

// Create opens a session for a tool. An unknown tool id is a configuration error.
func (h *Hub) Create(ctx context.Context, toolID string, files []File) (*Session, error) {
	tool, err := LookupTool(toolID)
	if err != nil {
		return nil, err
	}
	id, err := h.newID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	s := newSession(id, tool, files, h.deps, &h.locks)
	if err = h.save(ctx, s); err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
	log.Printf("[INFO][EditorHub] session %s opened for %s", id, tool.ID)
	return s, nil
}

// Adopt registers a session the backend already created (upload-first flow)
func (h *Hub) Adopt(ctx context.Context, id, toolID string, files []File) (*Session, error) {
	tool, err := LookupTool(toolID)
	if err != nil {
		return nil, err
	}
	s := newSession(id, tool, files, h.deps, &h.locks)
	if err = h.save(ctx, s); err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
	return s, nil
}

// Get returns a live session, restoring it from the Store when it was evicted
func (h *Hub) Get(ctx context.Context, id string) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if ok {
		return s, nil
	}
	if h.store == nil {
		return nil, ErrUnknownSession
	}
	rec, err := h.store.LoadRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUnknownSession) {
			return nil, err
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	tool, err := LookupTool(rec.Tool)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// lost a race with another restore
	if s, ok = h.sessions[id]; ok {
		return s, nil
	}
	s = restoreSession(rec, tool, h.deps, &h.locks)
	h.sessions[id] = s
	log.Printf("[INFO][EditorHub] session %s restored", id)
	return s, nil
}

// Save persists the session record
func (h *Hub) Save(ctx context.Context, s *Session) error {
	return h.save(ctx, s)
}

func (h *Hub) save(ctx context.Context, s *Session) error {
	if h.store == nil {
		return nil
	}
	if err := h.store.SaveRecord(ctx, s.Record()); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID(), err)
	}
	return nil
}

// Close tears a session down for good
func (h *Hub) Close(ctx context.Context, id string) error {
	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if h.store != nil {
		if err := h.store.DeleteRecord(ctx, id); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	} else if !ok {
		return ErrUnknownSession
	}
	log.Printf("[INFO][EditorHub] session %s closed", id)
	return nil
}

// Reap evicts sessions idle for longer than the idle timeout
func (h *Hub) Reap() int {
	cutoff := h.now().Add(-h.idle)
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, s := range h.sessions {
		if s.LastActive().Before(cutoff) {
			delete(h.sessions, id)
			n++
		}
	}
	return n
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// IDs lists the live session ids, sorted
func (h *Hub) IDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
