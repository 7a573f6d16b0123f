package editor

import (
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// File - one source file of the session as stored by the document backend
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Upload - file bytes on their way to the document backend
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

const DefaultMaxUploadBytes = 50 << 20

var DefaultAllowedTypes = []string{"application/pdf", "image/jpeg", "image/png"}

type Limits struct {
	MaxUploadBytes int64
	AllowedTypes   []string
}

func (l Limits) withDefaults() Limits {
	if l.MaxUploadBytes <= 0 {
		l.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(l.AllowedTypes) == 0 {
		l.AllowedTypes = DefaultAllowedTypes
	}
	return l
}

// Validate rejects oversized or empty uploads. An unknown content type is only
// warned about, since browsers report types inconsistently; a .pdf name always passes.
func (l Limits) Validate(u Upload) error {
	l = l.withDefaults()
	if u.Size > l.MaxUploadBytes {
		return fmt.Errorf("%w: %s is larger than %d MB", ErrFileTooLarge, u.Name, l.MaxUploadBytes>>20)
	}
	if u.Name == "" {
		return fmt.Errorf("%w: missing file name", ErrUnsupportedType)
	}
	ct := u.ContentType
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if !slices.Contains(l.AllowedTypes, ct) && !strings.EqualFold(filepath.Ext(u.Name), ".pdf") {
		log.Printf("[WARN][Editor] unknown type %q for %s", u.ContentType, u.Name)
	}
	return nil
}

// ValidateAll checks every upload before any is sent, so a batch is committed whole or not at all
func (l Limits) ValidateAll(uploads []Upload) error {
	if len(uploads) == 0 {
		return ErrNoFiles
	}
	for _, u := range uploads {
		if err := l.Validate(u); err != nil {
			return err
		}
	}
	return nil
}
