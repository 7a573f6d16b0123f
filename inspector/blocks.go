package inspector

import (
	"context"
	"regexp"

	"seehuhn.de/go/geom/rect"

	"github.com/zeptools/gw-pdfedit/coords"
)

// TextBlock is one text span of a page as reported by the analysis service.
// BBox is [x0, y0, x1, y1] in page space, y downward.
type TextBlock struct {
	Text   string    `json:"text"`
	BBox   []float64 `json:"bbox"`
	Size   float64   `json:"size"`
	Font   string    `json:"font"`
	Color  string    `json:"color"`
	Origin []float64 `json:"origin,omitempty"` // baseline origin
}

// Analyzer fetches the text blocks of a page of the session's active document
type Analyzer interface {
	Analyze(ctx context.Context, page int) ([]TextBlock, error)
}

// AnalyzerFunc adapts a function to Analyzer
type AnalyzerFunc func(ctx context.Context, page int) ([]TextBlock, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, page int) ([]TextBlock, error) {
	return f(ctx, page)
}

const (
	defaultBlockSize  = 12
	defaultBlockColor = "#000000"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Box returns the page-space box of the block, false for a malformed bbox
func (b TextBlock) Box() (rect.Rect, bool) {
	r, ok := coords.BoxFromSlice(b.BBox)
	if !ok || coords.Width(r) <= 0 || coords.Height(r) <= 0 {
		return rect.Rect{}, false
	}
	return r, true
}

func (b TextBlock) fontSize() float64 {
	if b.Size <= 0 {
		return defaultBlockSize
	}
	return b.Size
}

func (b TextBlock) fill() string {
	if !hexColor.MatchString(b.Color) {
		return defaultBlockColor
	}
	return b.Color
}
