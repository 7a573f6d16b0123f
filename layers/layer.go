package layers

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/coords"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindPath  Kind = "path"
	KindRect  Kind = "rect"
)

type ID string

// Transform - position (top-left), scale and rotation (degrees) of a Layer
// All lengths are page-space points.
type Transform struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	Angle  float64 `json:"angle"`
}

func IdentityAt(left, top float64) Transform {
	return Transform{Left: left, Top: top, ScaleX: 1, ScaleY: 1}
}

type Text struct {
	Content    string
	FontSize   float64
	FontFamily string
	Fill       string
	Background string
	Padding    float64
}

type Path struct {
	Commands    []PathCommand
	Stroke      string
	StrokeWidth float64
}

// Image - Src is always a self-contained data URL. Width/Height are the unscaled
// dimensions in page space.
type Image struct {
	Src    string
	Width  float64
	Height float64
}

type Rect struct {
	Width       float64
	Height      float64
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// Layer is one annotation object on a page.
// Geometry is captured in page space at creation time; pixel coordinates are
// only derived transiently through a coords.Mapper.
type Layer struct {
	ID   ID
	Kind Kind
	Page int
	Transform
	Opacity    float64
	Selectable bool

	Text  *Text
	Path  *Path
	Image *Image
	Rect  *Rect
}

// Size is the unscaled width/height of the layer content
func (l *Layer) Size() (float64, float64) {
	switch l.Kind {
	case KindText:
		return textSize(l.Text)
	case KindImage:
		return l.Image.Width, l.Image.Height
	case KindRect:
		return l.Rect.Width, l.Rect.Height
	case KindPath:
		b, ok := pathBounds(l.Path.Commands)
		if !ok {
			return 0, 0
		}
		return coords.Width(b), coords.Height(b)
	}
	return 0, 0
}

// Bounds is the axis-aligned page-space box of the layer after scale and rotation.
// Rotation pivots on the top-left corner.
func (l *Layer) Bounds() rect.Rect {
	if l.Kind == KindPath {
		return l.pathBoundsOnPage()
	}
	w, h := l.Size()
	w *= l.ScaleX
	h *= l.ScaleY
	return l.rotatedBox(w, h)
}

func (l *Layer) rotatedBox(w, h float64) rect.Rect {
	if l.Angle == 0 {
		return coords.Box(l.Left, l.Top, l.Left+w, l.Top+h)
	}
	sin, cos := math.Sincos(l.Angle * math.Pi / 180)
	corners := [4]vec.Vec2{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	box := rect.Rect{LLx: math.Inf(1), LLy: math.Inf(1), URx: math.Inf(-1), URy: math.Inf(-1)}
	for _, c := range corners {
		x := l.Left + c.X*cos - c.Y*sin
		y := l.Top + c.X*sin + c.Y*cos
		box.LLx, box.URx = min(box.LLx, x), max(box.URx, x)
		box.LLy, box.URy = min(box.LLy, y), max(box.URy, y)
	}
	return box
}

// path commands keep absolute page coordinates; Left/Top follow the command bounds origin
func (l *Layer) pathBoundsOnPage() rect.Rect {
	b, ok := pathBounds(l.Path.Commands)
	if !ok {
		return coords.Box(l.Left, l.Top, l.Left, l.Top)
	}
	box := l.rotatedBox(coords.Width(b)*l.ScaleX, coords.Height(b)*l.ScaleY)
	pad := l.Path.StrokeWidth / 2
	return coords.Box(box.LLx-pad, box.LLy-pad, box.URx+pad, box.URy+pad)
}

// Translate moves the layer by a page-space delta
func (l *Layer) Translate(dx, dy float64) {
	l.Left += dx
	l.Top += dy
	if l.Kind != KindPath {
		return
	}
	for _, c := range l.Path.Commands {
		for i := 0; i+1 < len(c.Args); i += 2 {
			c.Args[i] += dx
			c.Args[i+1] += dy
		}
	}
}

// Contains reports whether the page-space point p hits the layer
func (l *Layer) Contains(p vec.Vec2) bool {
	return coords.Contains(l.Bounds(), p)
}

// Clone is a deep copy. Export and snapshots never hand out live layers.
func (l *Layer) Clone() *Layer {
	c := *l
	if l.Text != nil {
		t := *l.Text
		c.Text = &t
	}
	if l.Path != nil {
		p := *l.Path
		p.Commands = make([]PathCommand, len(l.Path.Commands))
		for i, cmd := range l.Path.Commands {
			p.Commands[i] = PathCommand{Op: cmd.Op, Args: append([]float64(nil), cmd.Args...)}
		}
		c.Path = &p
	}
	if l.Image != nil {
		img := *l.Image
		c.Image = &img
	}
	if l.Rect != nil {
		r := *l.Rect
		c.Rect = &r
	}
	return &c
}

// text metrics are estimated; the real glyph widths are only known to the renderer
const (
	avgGlyphWidth = 0.55
	lineHeight    = 1.16
)

func textSize(t *Text) (float64, float64) {
	longest, lines := 0, 1
	cur := 0
	for _, r := range t.Content {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		longest = max(longest, cur)
	}
	w := float64(longest)*t.FontSize*avgGlyphWidth + 2*t.Padding
	h := float64(lines)*t.FontSize*lineHeight + 2*t.Padding
	return w, h
}
