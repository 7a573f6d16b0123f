package coords

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

const (
	DensityFactor     = 1.5 // thumbnail/grid renders are oversampled for high-density displays
	MaxScale          = 1.5 // the editing view never upscales a page beyond 150%
	DefaultThumbWidth = 150 // used when the thumbnail container reports no width
)

// Size - natural (unscaled) page size in points (72 dpi)
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ThumbnailScale computes the render scale for thumbnail and page-grid contexts
// scale = (targetWidth / naturalWidth) * DensityFactor
func ThumbnailScale(natural Size, targetWidth float64) float64 {
	if natural.Width <= 0 {
		return DensityFactor
	}
	if targetWidth <= 0 {
		targetWidth = DefaultThumbWidth
	}
	return targetWidth / natural.Width * DensityFactor
}

// FitScale computes the render scale of the primary editing view
// scale = min(containerWidth / naturalWidth, MaxScale)
func FitScale(natural Size, containerWidth float64) float64 {
	if natural.Width <= 0 || containerWidth <= 0 {
		return 1
	}
	return min(containerWidth/natural.Width, MaxScale)
}

// Mapper converts between page space (points) and pixel space at one scale.
// It keeps no history: a Mapper is only valid for the scale it was built with.
// Both spaces have their origin at the top-left corner of the page, y grows downward.
type Mapper struct {
	Scale float64
}

func NewMapper(scale float64) Mapper {
	if scale <= 0 {
		scale = 1
	}
	return Mapper{Scale: scale}
}

// PageToPixel is the page → pixel transform
func (m Mapper) PageToPixel() matrix.Matrix {
	return matrix.Matrix{m.Scale, 0, 0, m.Scale, 0, 0}
}

// PixelToPage is the pixel → page transform
func (m Mapper) PixelToPage() matrix.Matrix {
	return matrix.Matrix{1 / m.Scale, 0, 0, 1 / m.Scale, 0, 0}
}

func (m Mapper) ToPixel(p vec.Vec2) vec.Vec2 {
	return apply(m.PageToPixel(), p)
}

func (m Mapper) ToPage(p vec.Vec2) vec.Vec2 {
	return apply(m.PixelToPage(), p)
}

func (m Mapper) LengthToPixel(l float64) float64 {
	return l * m.Scale
}

func (m Mapper) LengthToPage(l float64) float64 {
	return l / m.Scale
}

// RectToPixel maps a page-space box (LL = min corner, UR = max corner) to pixel space
func (m Mapper) RectToPixel(r rect.Rect) rect.Rect {
	return applyRect(m.PageToPixel(), r)
}

func (m Mapper) RectToPage(r rect.Rect) rect.Rect {
	return applyRect(m.PixelToPage(), r)
}

func apply(M matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: p.X*M[0] + p.Y*M[2] + M[4],
		Y: p.X*M[1] + p.Y*M[3] + M[5],
	}
}

func applyRect(M matrix.Matrix, r rect.Rect) rect.Rect {
	a := apply(M, vec.Vec2{X: r.LLx, Y: r.LLy})
	b := apply(M, vec.Vec2{X: r.URx, Y: r.URy})
	return Box(a.X, a.Y, b.X, b.Y)
}
