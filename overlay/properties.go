package overlay

import (
	"fmt"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/layers"
)

// Panel is the properties panel state of the selection
type Panel struct {
	ID       layers.ID   `json:"id"`
	Kind     layers.Kind `json:"type"`
	FontSize float64     `json:"fontSize,omitempty"`
	Fill     string      `json:"fill,omitempty"`
	Opacity  float64     `json:"opacity"`
}

// Panel returns the properties of the selected layer, false when nothing is selected
func (r *Renderer) Panel() (Panel, bool) {
	l, ok := r.Selected()
	if !ok {
		return Panel{}, false
	}
	p := Panel{ID: l.ID, Kind: l.Kind, Opacity: l.Opacity}
	switch l.Kind {
	case layers.KindText:
		p.FontSize = l.Text.FontSize
		p.Fill = l.Text.Fill
	case layers.KindRect:
		p.Fill = l.Rect.Fill
	case layers.KindPath:
		p.Fill = l.Path.Stroke
	}
	return p, true
}

// SetProperty applies one panel edit to the selected layer.
// Values arrive decoded from JSON: numbers as float64 or numeric strings.
func (r *Renderer) SetProperty(name string, value any) error {
	l, ok := r.Selected()
	if !ok {
		return ErrNoSelection
	}
	switch name {
	case "fontSize":
		if l.Kind != layers.KindText {
			return fmt.Errorf("%w: fontSize on %s", ErrUnknownProperty, l.Kind)
		}
		n, err := number(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: fontSize %v", ErrInvalidValue, value)
		}
		l.Text.FontSize = n
	case "fill":
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: fill %v", ErrInvalidValue, value)
		}
		switch l.Kind {
		case layers.KindText:
			l.Text.Fill = s
		case layers.KindRect:
			l.Rect.Fill = s
		case layers.KindPath:
			l.Path.Stroke = s
		default:
			return fmt.Errorf("%w: fill on %s", ErrUnknownProperty, l.Kind)
		}
	case "opacity":
		n, err := number(value)
		if err != nil || n < 0 || n > 1 {
			return fmt.Errorf("%w: opacity %v", ErrInvalidValue, value)
		}
		l.Opacity = n
	case "text":
		s, ok := value.(string)
		if !ok || l.Kind != layers.KindText {
			return fmt.Errorf("%w: text %v", ErrInvalidValue, value)
		}
		l.Text.Content = s
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return nil
}

// PixelTransform - a transform reported by the interactive surface, Left/Top in pixels
type PixelTransform struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	Angle  float64 `json:"angle"`
}

// SetTransform stores a pixel-space transform of a layer back in page space
func (r *Renderer) SetTransform(id layers.ID, t PixelTransform) error {
	l, ok := r.surface.Find(id)
	if !ok {
		return ErrNotFound
	}
	if t.ScaleX <= 0 || t.ScaleY <= 0 {
		return fmt.Errorf("%w: scale %vx%v", ErrInvalidValue, t.ScaleX, t.ScaleY)
	}
	p := r.mapper.ToPage(vec.Vec2{X: t.Left, Y: t.Top})
	l.Translate(p.X-l.Left, p.Y-l.Top)
	l.ScaleX, l.ScaleY, l.Angle = t.ScaleX, t.ScaleY, t.Angle
	return nil
}

// DeleteSelected removes the active object
func (r *Renderer) DeleteSelected() (layers.ID, error) {
	l, ok := r.Selected()
	if !ok {
		return "", ErrNoSelection
	}
	r.Remove(l.ID)
	return l.ID, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}
