package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeptools/gw-pdfedit/imgsrc"
	"github.com/zeptools/gw-pdfedit/layers"
)

var ErrNotSelfContained = errors.New("image source is not self-contained")

// Layer is the flat, page-space record consumed by the document backend.
// On the wire a record carries exactly the fields of its kind, all of them,
// even when empty (see MarshalJSON).
type Layer struct {
	ID      string      `json:"id"`
	PageNum int         `json:"pageNum"`
	Type    layers.Kind `json:"type"`
	Left    float64     `json:"left"`
	Top     float64     `json:"top"`
	ScaleX  float64     `json:"scaleX"`
	ScaleY  float64     `json:"scaleY"`
	Angle   float64     `json:"angle"`
	Opacity *float64    `json:"opacity,omitempty"`

	// text
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`

	// text, rect
	Fill string `json:"fill"`

	// path
	Path []layers.PathCommand `json:"path"`

	// path, rect
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`

	// image
	Src string `json:"src"`

	// image (post-scale), rect
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type common struct {
	ID      string      `json:"id"`
	PageNum int         `json:"pageNum"`
	Type    layers.Kind `json:"type"`
	Left    float64     `json:"left"`
	Top     float64     `json:"top"`
	ScaleX  float64     `json:"scaleX"`
	ScaleY  float64     `json:"scaleY"`
	Angle   float64     `json:"angle"`
	Opacity *float64    `json:"opacity,omitempty"`
}

type textFields struct {
	common
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Fill       string  `json:"fill"`
}

type pathFields struct {
	common
	Path        []layers.PathCommand `json:"path"`
	Stroke      string               `json:"stroke"`
	StrokeWidth float64              `json:"strokeWidth"`
}

type imageFields struct {
	common
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type rectFields struct {
	common
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// MarshalJSON writes the common fields plus every field of the record's kind
func (l Layer) MarshalJSON() ([]byte, error) {
	c := common{
		ID:      l.ID,
		PageNum: l.PageNum,
		Type:    l.Type,
		Left:    l.Left,
		Top:     l.Top,
		ScaleX:  l.ScaleX,
		ScaleY:  l.ScaleY,
		Angle:   l.Angle,
		Opacity: l.Opacity,
	}
	switch l.Type {
	case layers.KindText:
		return json.Marshal(textFields{c, l.Text, l.FontSize, l.FontFamily, l.Fill})
	case layers.KindPath:
		path := l.Path
		if path == nil {
			path = []layers.PathCommand{}
		}
		return json.Marshal(pathFields{c, path, l.Stroke, l.StrokeWidth})
	case layers.KindImage:
		return json.Marshal(imageFields{c, l.Src, l.Width, l.Height})
	case layers.KindRect:
		return json.Marshal(rectFields{c, l.Width, l.Height, l.Fill, l.Stroke, l.StrokeWidth})
	}
	return nil, fmt.Errorf("unknown layer kind %q", l.Type)
}

// Payload is the apply request body
type Payload struct {
	Layers []Layer `json:"layers"`
}

// Layers walks the objects in stacking order and emits one record per object.
// Ids are export-time sequence numbers, unrelated to live layer ids.
// No objects yields an empty, non-nil list.
func Layers(objs []*layers.Layer) ([]Layer, error) {
	out := make([]Layer, 0, len(objs))
	for i, l := range objs {
		rec, err := record(l)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.ID, err)
		}
		rec.ID = fmt.Sprintf("layer-%d", i)
		out = append(out, rec)
	}
	return out, nil
}

// JSON is Layers serialized as the apply payload
func JSON(objs []*layers.Layer) ([]byte, error) {
	recs, err := Layers(objs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Payload{Layers: recs})
}

func record(l *layers.Layer) (Layer, error) {
	rec := Layer{
		PageNum: l.Page,
		Type:    l.Kind,
		Left:    l.Left,
		Top:     l.Top,
		ScaleX:  l.ScaleX,
		ScaleY:  l.ScaleY,
		Angle:   l.Angle,
	}
	if l.Opacity != 1 {
		op := l.Opacity
		rec.Opacity = &op
	}
	switch l.Kind {
	case layers.KindText:
		rec.Text = l.Text.Content
		rec.FontSize = l.Text.FontSize
		rec.FontFamily = l.Text.FontFamily
		rec.Fill = l.Text.Fill
	case layers.KindPath:
		rec.Path = l.Clone().Path.Commands
		rec.Stroke = l.Path.Stroke
		rec.StrokeWidth = l.Path.StrokeWidth
	case layers.KindImage:
		if !imgsrc.IsSelfContained(l.Image.Src) {
			return Layer{}, ErrNotSelfContained
		}
		rec.Src = l.Image.Src
		rec.Width = l.Image.Width * l.ScaleX
		rec.Height = l.Image.Height * l.ScaleY
	case layers.KindRect:
		rec.Width = l.Rect.Width
		rec.Height = l.Rect.Height
		rec.Fill = l.Rect.Fill
		rec.Stroke = l.Rect.Stroke
		rec.StrokeWidth = l.Rect.StrokeWidth
	default:
		return Layer{}, fmt.Errorf("unknown layer kind %q", l.Kind)
	}
	return rec, nil
}
