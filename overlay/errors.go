package overlay

import "errors"

var (
	ErrNoSelection     = errors.New("no object selected")
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidValue    = errors.New("invalid property value")
	ErrNotFound        = errors.New("object not found")
)
