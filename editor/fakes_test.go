package editor

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/export"
	"github.com/zeptools/gw-pdfedit/inspector"
)

type fakeBackend struct {
	mu        sync.Mutex
	blocks    map[int][]inspector.TextBlock
	analyzeFn func(page int) ([]inspector.TextBlock, error)
	applied   [][]export.Layer
	applyErr  error
	applyWait chan struct{}
	uploads   [][]Upload
	processed []ProcessRequest
}

func (f *fakeBackend) Analyze(ctx context.Context, sessionID string, page int) ([]inspector.TextBlock, error) {
	if f.analyzeFn != nil {
		return f.analyzeFn(page)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocks[page], nil
}

func (f *fakeBackend) Apply(ctx context.Context, sessionID string, layers []export.Layer) (string, error) {
	if f.applyWait != nil {
		<-f.applyWait
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return "", f.applyErr
	}
	f.applied = append(f.applied, layers)
	return "/download/" + sessionID + ".pdf", nil
}

func (f *fakeBackend) Upload(ctx context.Context, sessionID string, files []Upload) (UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, files)
	res := UploadResult{SessionID: sessionID}
	for _, u := range files {
		res.Files = append(res.Files, File{Name: u.Name, Size: u.Size, URL: "/files/" + u.Name})
	}
	return res, nil
}

func (f *fakeBackend) Process(ctx context.Context, tool ToolConfig, sessionID string, req ProcessRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, req)
	return "/download/" + tool.ID + ".zip", nil
}

type fakeRasterizer struct {
	natural coords.Size
	scales  []float64
}

func (f *fakeRasterizer) NaturalSize(ctx context.Context, page int) (coords.Size, error) {
	return f.natural, nil
}

func (f *fakeRasterizer) Render(ctx context.Context, page int, scale float64) error {
	f.scales = append(f.scales, scale)
	return nil
}

type taskEvent struct {
	op     string
	id     int64
	detail string
}

type fakeTasks struct {
	mu     sync.Mutex
	nextID int64
	events []taskEvent
}

func (f *fakeTasks) Begin(ctx context.Context, tool, sessionID string, files []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.events = append(f.events, taskEvent{"begin", f.nextID, tool})
	return f.nextID, nil
}

func (f *fakeTasks) Complete(ctx context.Context, id int64, outputURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, taskEvent{"complete", id, outputURL})
	return nil
}

func (f *fakeTasks) Fail(ctx context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, taskEvent{"fail", id, reason})
	return nil
}

type memStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]Record)}
}

func (m *memStore) SaveRecord(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memStore) LoadRecord(ctx context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrUnknownSession
	}
	return rec, nil
}

func (m *memStore) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memStore) StoredIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var errBackendDown = errors.New("backend down")
