package overlay

import (
	"log"

	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/layers"
)

// InspectorMode is the part of the inspector the renderer drives.
// Points are page space.
type InspectorMode interface {
	Deactivate()
	PointerDown(p vec.Vec2) bool // true if a hit-region consumed the event
	Hover(p vec.Vec2)
}

// Capabilities are the optional subsystems wired into a Renderer at initialization
type Capabilities struct {
	Inspector InspectorMode
	Status    StatusFunc
}

// Editing - the text layer in in-place edit mode
type Editing struct {
	ID        layers.ID
	SelectAll bool // content pre-selected for overwrite
}

// Renderer mirrors the Surface onto the interactive drawing area of the current page.
// It is not safe for concurrent use; the owning session serializes all calls.
type Renderer struct {
	surface   *Surface
	caps      Capabilities
	tool      Tool
	mode      Mode
	page      int
	mapper    coords.Mapper
	pageReady bool
	selected  layers.ID
	editing   *Editing
	gesture   *gesture
}

func NewRenderer(surface *Surface) *Renderer {
	return &Renderer{
		surface: surface,
		page:    1,
		mapper:  coords.NewMapper(1),
		mode:    ModeInactive,
	}
}

// Attach wires optional capabilities. Must be called before any event is delivered.
func (r *Renderer) Attach(caps Capabilities) {
	r.caps = caps
}

func (r *Renderer) Surface() *Surface       { return r.surface }
func (r *Renderer) Tool() Tool              { return r.tool }
func (r *Renderer) Mode() Mode              { return r.mode }
func (r *Renderer) Page() int               { return r.page }
func (r *Renderer) Mapper() coords.Mapper   { return r.mapper }
func (r *Renderer) PageReady() bool         { return r.pageReady }
func (r *Renderer) SelectedID() layers.ID   { return r.selected }
func (r *Renderer) InInspectMode() bool     { return r.mode == ModeInspect }
func (r *Renderer) SetScale(scale float64)  { r.mapper = coords.NewMapper(scale) }
func (r *Renderer) SetPageReady(ready bool) { r.pageReady = ready }

// SetPage switches the visible page. Selection, editing and any open gesture belong
// to the old page and are dropped.
func (r *Renderer) SetPage(page int) {
	if page == r.page {
		return
	}
	r.page = page
	r.pageReady = false
	r.Deselect()
	r.gesture = nil
}

// SetActiveTool runs the tool state machine. Unknown tools are logged and ignored.
func (r *Renderer) SetActiveTool(tool Tool) bool {
	mode, ok := ModeOf(tool)
	if !ok {
		log.Printf("[WARN][Overlay] unknown tool %q ignored", tool)
		return false
	}
	if tool != ToolTextEdit && r.caps.Inspector != nil {
		r.caps.Inspector.Deactivate()
	}
	r.gesture = nil
	r.tool = tool
	r.mode = mode
	switch mode {
	case ModeTextInsert:
		r.status("Click to add text box", StatusNormal)
	case ModeFreeDraw:
		r.status("Draw on the canvas", StatusNormal)
	case ModeHighlight:
		r.status("Highlight text", StatusNormal)
	case ModeSelect:
		r.status("Select and edit objects", StatusNormal)
	}
	return true
}

// AddLayer appends a layer built in page space to the current page
func (r *Renderer) AddLayer(l *layers.Layer) *layers.Layer {
	if l.Page == 0 {
		l.Page = r.page
	}
	return r.surface.Add(l)
}

// AddTextBox creates a text layer at a pixel position and opens it for editing
func (r *Renderer) AddTextBox(px vec.Vec2, content string) *layers.Layer {
	if content == "" {
		content = DefaultText
	}
	p := r.mapper.ToPage(px)
	l := r.AddLayer(layers.NewText(p.X, p.Y, layers.Text{
		Content:    content,
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Fill:       DefaultTextFill,
		Background: DefaultTextBg,
		Padding:    DefaultTextPadding,
	}))
	r.BeginEditing(l.ID, true)
	return l
}

// AddImage places an image at the default pixel position, downscaled so it is
// at most ImageMaxWidth pixels wide at the current scale
func (r *Renderer) AddImage(img layers.Image) *layers.Layer {
	p := r.mapper.ToPage(vec.Vec2{X: ImageLeft, Y: ImageTop})
	l := layers.NewImage(p.X, p.Y, img)
	if maxW := r.mapper.LengthToPage(ImageMaxWidth); img.Width > maxW {
		s := maxW / img.Width
		l.ScaleX, l.ScaleY = s, s
	}
	r.AddLayer(l)
	r.selected = l.ID
	return l
}

// Remove deletes a layer from the surface
func (r *Renderer) Remove(id layers.ID) bool {
	if !r.surface.Remove(id) {
		return false
	}
	if r.selected == id {
		r.Deselect()
	}
	return true
}

// ClearCanvas removes every layer of every page
func (r *Renderer) ClearCanvas() int {
	r.Deselect()
	r.gesture = nil
	return r.surface.Clear()
}

// Select makes a layer of the current page the active object
func (r *Renderer) Select(id layers.ID) bool {
	l, ok := r.surface.Find(id)
	if !ok || l.Page != r.page || !l.Selectable {
		return false
	}
	if r.editing != nil && r.editing.ID != id {
		r.CommitEdit()
	}
	r.selected = id
	return true
}

func (r *Renderer) Deselect() {
	r.CommitEdit()
	r.selected = ""
}

// Selected returns the live selected layer
func (r *Renderer) Selected() (*layers.Layer, bool) {
	if r.selected == "" {
		return nil, false
	}
	l, ok := r.surface.Find(r.selected)
	if !ok {
		r.selected = ""
	}
	return l, ok
}

// BeginEditing selects a text layer and enters in-place editing
func (r *Renderer) BeginEditing(id layers.ID, selectAll bool) bool {
	l, ok := r.surface.Find(id)
	if !ok || l.Kind != layers.KindText {
		return false
	}
	r.selected = id
	r.editing = &Editing{ID: id, SelectAll: selectAll}
	return true
}

func (r *Renderer) Editing() (Editing, bool) {
	if r.editing == nil {
		return Editing{}, false
	}
	return *r.editing, true
}

// EditText replaces the content of the text being edited
func (r *Renderer) EditText(content string) bool {
	if r.editing == nil {
		return false
	}
	l, ok := r.surface.Find(r.editing.ID)
	if !ok {
		r.editing = nil
		return false
	}
	l.Text.Content = content
	r.editing.SelectAll = false
	return true
}

func (r *Renderer) CommitEdit() {
	r.editing = nil
}

func (r *Renderer) status(msg string, kind StatusKind) {
	if r.caps.Status != nil {
		r.caps.Status(msg, kind)
	}
}
