package editor

import (
	"errors"

	"github.com/zeptools/gw-pdfedit/export"
	"github.com/zeptools/gw-pdfedit/inspector"
)

var (
	ErrUnknownSession   = errors.New("unknown editor session")
	ErrUnknownTool      = errors.New("unknown tool configuration")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrNoFiles          = errors.New("no files")
	ErrIndexOutOfRange  = errors.New("file index out of range")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrPageNotReady     = errors.New("page not rendered yet")
	ErrBusy             = errors.New("another submission is in progress")
	ErrNotSelfContained = export.ErrNotSelfContained
	ErrStale            = inspector.ErrStale
)
