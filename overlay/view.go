package overlay

import (
	"github.com/zeptools/gw-pdfedit/layers"
)

// Drawable is a layer of the current page projected into pixel space
type Drawable struct {
	ID       layers.ID   `json:"id"`
	Kind     layers.Kind `json:"type"`
	Left     float64     `json:"left"`
	Top      float64     `json:"top"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	ScaleX   float64     `json:"scaleX"`
	ScaleY   float64     `json:"scaleY"`
	Angle    float64     `json:"angle"`
	Opacity  float64     `json:"opacity"`
	Selected bool        `json:"selected,omitempty"`
	Editing  bool        `json:"editing,omitempty"`
}

// Render projects the layers of the current page with the current mapper.
// Nothing is drawn until the page raster is ready.
func (r *Renderer) Render() []Drawable {
	if !r.pageReady {
		return nil
	}
	out := make([]Drawable, 0)
	for _, l := range r.surface.Objects() {
		if l.Page != r.page {
			continue
		}
		w, h := l.Size()
		b := l.Bounds()
		left, top := l.Left, l.Top
		if l.Kind == layers.KindPath {
			left, top = b.LLx, b.LLy
		}
		d := Drawable{
			ID:       l.ID,
			Kind:     l.Kind,
			Left:     r.mapper.LengthToPixel(left),
			Top:      r.mapper.LengthToPixel(top),
			Width:    r.mapper.LengthToPixel(w),
			Height:   r.mapper.LengthToPixel(h),
			ScaleX:   l.ScaleX,
			ScaleY:   l.ScaleY,
			Angle:    l.Angle,
			Opacity:  l.Opacity,
			Selected: l.ID == r.selected,
		}
		if r.editing != nil && r.editing.ID == l.ID {
			d.Editing = true
		}
		out = append(out, d)
	}
	return out
}
