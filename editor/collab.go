package editor

import (
	"context"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/export"
	"github.com/zeptools/gw-pdfedit/inspector"
)

// Rasterizer paints pages of the active document.
// Sessions driven by a browser have none; the browser reports completed renders instead.
type Rasterizer interface {
	NaturalSize(ctx context.Context, page int) (coords.Size, error)
	Render(ctx context.Context, page int, scale float64) error
}

// UploadResult - files stored by the backend for a session
type UploadResult struct {
	SessionID string `json:"session_id"`
	Files     []File `json:"files"`
}

// ProcessRequest is the page-grid submission of a tool
type ProcessRequest struct {
	Files       []string     `json:"files"`
	PagesConfig []PageConfig `json:"pages_config"`
}

// Backend is the document service behind the editor
type Backend interface {
	Analyze(ctx context.Context, sessionID string, page int) ([]inspector.TextBlock, error)
	Apply(ctx context.Context, sessionID string, layers []export.Layer) (redirectURL string, err error)
	Upload(ctx context.Context, sessionID string, files []Upload) (UploadResult, error)
	Process(ctx context.Context, tool ToolConfig, sessionID string, req ProcessRequest) (redirectURL string, err error)
}

// TaskRecorder keeps the ledger of submissions
type TaskRecorder interface {
	Begin(ctx context.Context, tool, sessionID string, files []string) (int64, error)
	Complete(ctx context.Context, id int64, outputURL string) error
	Fail(ctx context.Context, id int64, reason string) error
}

// Store persists session records so a session survives a gateway restart.
// Overlay layers are not persisted.
type Store interface {
	SaveRecord(ctx context.Context, rec Record) error
	LoadRecord(ctx context.Context, sessionID string) (Record, error)
	DeleteRecord(ctx context.Context, sessionID string) error
}

// Deps - collaborators shared by every session of a Hub. Only Backend is required.
type Deps struct {
	Backend    Backend
	Rasterizer Rasterizer
	Tasks      TaskRecorder
	Limits     Limits
}
