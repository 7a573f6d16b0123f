package overlay

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/layers"
)

func newReadyRenderer(scale float64) *Renderer {
	r := NewRenderer(NewSurface(nil))
	r.SetScale(scale)
	r.SetPageReady(true)
	return r
}

type fakeInspector struct {
	deactivated int
	consume     bool
	downs       []vec.Vec2
	hovers      []vec.Vec2
}

func (f *fakeInspector) Deactivate()      { f.deactivated++ }
func (f *fakeInspector) Hover(p vec.Vec2) { f.hovers = append(f.hovers, p) }
func (f *fakeInspector) PointerDown(p vec.Vec2) bool {
	f.downs = append(f.downs, p)
	return f.consume
}

func TestSurfaceAddRemoveKeepsOrder(t *testing.T) {
	s := NewSurface(nil)
	a := s.Add(layers.NewRect(0, 0, layers.Rect{Width: 10, Height: 10}, true))
	b := s.Add(layers.NewRect(5, 5, layers.Rect{Width: 10, Height: 10}, true))
	c := s.Add(layers.NewRect(50, 50, layers.Rect{Width: 10, Height: 10}, true))
	if a.ID == b.ID || b.ID == c.ID {
		t.Fatal("ids reused")
	}
	if !s.Remove(b.ID) || s.Remove(b.ID) {
		t.Error("remove should succeed exactly once")
	}
	idx := s.Index()
	if diff := cmp.Diff([]layers.ID{a.ID, c.ID}, idx.Order); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if s.Len() != 2 || len(idx.ByPage[0]) != 2 {
		t.Errorf("len = %d, page 0 = %d", s.Len(), len(idx.ByPage[0]))
	}
	if s.Clear() != 2 || s.Len() != 0 {
		t.Error("clear")
	}
}

func TestTopmostAtSkipsUnselectable(t *testing.T) {
	s := NewSurface(nil)
	under := layers.NewRect(0, 0, layers.Rect{Width: 100, Height: 100}, true)
	under.Page = 1
	s.Add(under)
	cover := layers.NewRect(0, 0, layers.Rect{Width: 100, Height: 100}, false)
	cover.Page = 1
	s.Add(cover)
	if got := s.TopmostAt(1, vec.Vec2{X: 50, Y: 50}); got != under {
		t.Errorf("topmost = %v, want the selectable layer", got)
	}
	if s.TopmostAt(2, vec.Vec2{X: 50, Y: 50}) != nil {
		t.Error("hit on another page")
	}
}

func TestToolStateMachine(t *testing.T) {
	r := newReadyRenderer(1)
	insp := &fakeInspector{}
	var statuses []string
	r.Attach(Capabilities{Inspector: insp, Status: func(msg string, kind StatusKind) { statuses = append(statuses, msg) }})

	tests := []struct {
		tool Tool
		mode Mode
	}{
		{ToolTextEdit, ModeInspect},
		{ToolDraw, ModeFreeDraw},
		{ToolHighlight, ModeHighlight},
		{ToolText, ModeTextInsert},
		{ToolImage, ModeSelect},
		{ToolSelect, ModeSelect},
		{ToolNone, ModeInactive},
	}
	for _, tt := range tests {
		if !r.SetActiveTool(tt.tool) || r.Mode() != tt.mode {
			t.Errorf("tool %q: mode = %v, want %v", tt.tool, r.Mode(), tt.mode)
		}
	}
	if insp.deactivated != 6 {
		t.Errorf("inspector deactivated %d times, want 6", insp.deactivated)
	}
	if r.SetActiveTool("laserTool") || r.Tool() != ToolNone {
		t.Error("unknown tool should be ignored")
	}
	if len(statuses) == 0 || statuses[0] != "Draw on the canvas" {
		t.Errorf("statuses = %v", statuses)
	}
	if ModeInspect.String() != "text-edit" {
		t.Errorf("inspect mode string = %q", ModeInspect.String())
	}
}

type rendererState struct {
	Tool     Tool
	Mode     Mode
	Selected layers.ID
	Editing  Editing
	Open     bool
	Gesture  bool
	Drawn    []Drawable
	Status   string
}

func stateOf(r *Renderer, status string) rendererState {
	ed, open := r.Editing()
	return rendererState{
		Tool:     r.Tool(),
		Mode:     r.Mode(),
		Selected: r.SelectedID(),
		Editing:  ed,
		Open:     open,
		Gesture:  r.gesture != nil,
		Drawn:    r.Render(),
		Status:   status,
	}
}

func TestSelectToolTwiceIsIdempotent(t *testing.T) {
	r := newReadyRenderer(1)
	insp := &fakeInspector{}
	var last string
	r.Attach(Capabilities{Inspector: insp, Status: func(msg string, kind StatusKind) { last = msg }})
	r.SetActiveTool(ToolText)
	r.PointerDown(vec.Vec2{X: 30, Y: 40})
	box := r.AddLayer(layers.NewRect(200, 200, layers.Rect{Width: 20, Height: 20}, true))
	r.PointerDown(vec.Vec2{X: 210, Y: 210})
	if r.SelectedID() != box.ID || r.gesture == nil {
		t.Fatalf("setup: selected %s gesture %v", r.SelectedID(), r.gesture != nil)
	}

	r.SetActiveTool(ToolSelect)
	once := stateOf(r, last)
	r.SetActiveTool(ToolSelect)
	twice := stateOf(r, last)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second select changed state (-once +twice):\n%s", diff)
	}
	if once.Tool != ToolSelect || once.Selected != box.ID || once.Gesture || len(once.Drawn) != 2 {
		t.Errorf("state = %+v", once)
	}
	if r.Surface().Len() != 2 {
		t.Errorf("layers = %d", r.Surface().Len())
	}
}

func TestFreeDrawBecomesPathLayer(t *testing.T) {
	r := newReadyRenderer(2)
	r.SetActiveTool(ToolDraw)
	r.PointerDown(vec.Vec2{X: 20, Y: 20})
	r.PointerMove(vec.Vec2{X: 40, Y: 60})
	l := r.PointerUp(vec.Vec2{X: 100, Y: 20})
	if l == nil || l.Kind != layers.KindPath || l.Page != 1 {
		t.Fatalf("layer = %+v", l)
	}
	want := []layers.PathCommand{
		{Op: "M", Args: []float64{10, 10}},
		{Op: "L", Args: []float64{20, 30}},
		{Op: "L", Args: []float64{50, 10}},
	}
	if diff := cmp.Diff(want, l.Path.Commands); diff != "" {
		t.Errorf("path in page space (-want +got):\n%s", diff)
	}
	if l.Path.Stroke != DrawBrush.Color || r.Surface().Len() != 1 {
		t.Errorf("stroke = %s, len = %d", l.Path.Stroke, r.Surface().Len())
	}
}

func TestPointerIgnoredUntilPageReady(t *testing.T) {
	r := NewRenderer(NewSurface(nil))
	r.SetActiveTool(ToolDraw)
	if r.PointerDown(vec.Vec2{X: 1, Y: 1}) || r.PointerUp(vec.Vec2{X: 2, Y: 2}) != nil {
		t.Error("gesture on a page that is not ready")
	}
	if r.Render() != nil {
		t.Error("render before page ready")
	}
}

func TestTextInsertOpensEditorAndReturnsToSelect(t *testing.T) {
	r := newReadyRenderer(1)
	r.SetActiveTool(ToolText)
	if !r.PointerDown(vec.Vec2{X: 30, Y: 40}) {
		t.Fatal("click ignored")
	}
	if r.Tool() != ToolSelect {
		t.Errorf("tool = %q after insert", r.Tool())
	}
	ed, ok := r.Editing()
	if !ok || !ed.SelectAll {
		t.Fatalf("editing = %+v, %v", ed, ok)
	}
	r.EditText("Hello")
	l, _ := r.Selected()
	if l.Text.Content != "Hello" || l.Left != 30 || l.Top != 40 {
		t.Errorf("text layer = %+v %+v", l.Transform, l.Text)
	}
	if ed, _ := r.Editing(); ed.SelectAll {
		t.Error("select-all kept after typing")
	}
}

func TestSelectMoveAndDelete(t *testing.T) {
	r := newReadyRenderer(2)
	r.SetActiveTool(ToolSelect)
	box := r.AddLayer(layers.NewRect(10, 10, layers.Rect{Width: 20, Height: 20}, true))

	if !r.PointerDown(vec.Vec2{X: 40, Y: 40}) || r.SelectedID() != box.ID {
		t.Fatal("click did not select")
	}
	if !r.Select(box.ID) || r.SelectedID() != box.ID {
		t.Error("select is not idempotent")
	}
	r.PointerMove(vec.Vec2{X: 60, Y: 50})
	r.PointerUp(vec.Vec2{X: 60, Y: 50})
	if box.Left != 20 || box.Top != 15 {
		t.Errorf("moved to %v,%v", box.Left, box.Top)
	}

	id, err := r.DeleteSelected()
	if err != nil || id != box.ID || r.Surface().Len() != 0 {
		t.Errorf("delete = %s, %v", id, err)
	}
	if _, err := r.DeleteSelected(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestInspectModeRoutesToInspector(t *testing.T) {
	r := newReadyRenderer(2)
	insp := &fakeInspector{consume: true}
	r.Attach(Capabilities{Inspector: insp})
	r.SetActiveTool(ToolTextEdit)
	if !r.PointerDown(vec.Vec2{X: 200, Y: 200}) {
		t.Error("consumed click not reported")
	}
	r.Hover(vec.Vec2{X: 20, Y: 40})
	if diff := cmp.Diff([]vec.Vec2{{X: 100, Y: 100}}, insp.downs); diff != "" {
		t.Errorf("downs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]vec.Vec2{{X: 10, Y: 20}}, insp.hovers); diff != "" {
		t.Errorf("hovers (-want +got):\n%s", diff)
	}
	r.SetActiveTool(ToolSelect)
	r.Hover(vec.Vec2{X: 1, Y: 1})
	if len(insp.hovers) != 1 {
		t.Error("hover forwarded outside inspect mode")
	}
}

func TestSetPageDropsSelection(t *testing.T) {
	r := newReadyRenderer(1)
	l := r.AddTextBox(vec.Vec2{X: 10, Y: 10}, "x")
	if r.SelectedID() != l.ID {
		t.Fatal("new text box not selected")
	}
	r.SetPage(2)
	if r.SelectedID() != "" || r.PageReady() {
		t.Error("selection or ready flag survived a page switch")
	}
	if _, ok := r.Editing(); ok {
		t.Error("editing survived a page switch")
	}
	if r.Select(l.ID) {
		t.Error("selected a layer of another page")
	}
}

func TestPropertiesAndTransform(t *testing.T) {
	r := newReadyRenderer(2)
	l := r.AddTextBox(vec.Vec2{X: 20, Y: 20}, "abc")
	if err := r.SetProperty("fontSize", "24"); err != nil || l.Text.FontSize != 24 {
		t.Errorf("fontSize: %v (%v)", err, l.Text.FontSize)
	}
	if err := r.SetProperty("opacity", 1.5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("opacity 1.5 err = %v", err)
	}
	if err := r.SetProperty("blur", 1.0); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("unknown property err = %v", err)
	}
	if err := r.SetProperty("fill", "#ff0000"); err != nil {
		t.Error(err)
	}
	p, ok := r.Panel()
	want := Panel{ID: l.ID, Kind: layers.KindText, FontSize: 24, Fill: "#ff0000", Opacity: 1}
	if diff := cmp.Diff(want, p); !ok || diff != "" {
		t.Errorf("panel (-want +got):\n%s", diff)
	}

	if err := r.SetTransform(l.ID, PixelTransform{Left: 100, Top: 60, ScaleX: 2, ScaleY: 2, Angle: 45}); err != nil {
		t.Fatal(err)
	}
	if l.Left != 50 || l.Top != 30 || l.ScaleX != 2 || l.Angle != 45 {
		t.Errorf("transform = %+v", l.Transform)
	}
	if err := r.SetTransform("layer-0", PixelTransform{ScaleX: 1, ScaleY: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing layer err = %v", err)
	}
}

func TestRenderProjectsCurrentPage(t *testing.T) {
	r := newReadyRenderer(2)
	a := r.AddLayer(layers.NewRect(10, 20, layers.Rect{Width: 30, Height: 40}, true))
	other := layers.NewRect(0, 0, layers.Rect{Width: 1, Height: 1}, true)
	other.Page = 2
	r.AddLayer(other)
	r.Select(a.ID)

	got := r.Render()
	want := []Drawable{{ID: a.ID, Kind: layers.KindRect, Left: 20, Top: 40, Width: 60, Height: 80, ScaleX: 1, ScaleY: 1, Opacity: 1, Selected: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("render (-want +got):\n%s", diff)
	}
	if r.ClearCanvas() != 2 || len(r.Render()) != 0 || r.SelectedID() != "" {
		t.Error("clear canvas")
	}
}

func TestAddImageDownscales(t *testing.T) {
	r := newReadyRenderer(1)
	l := r.AddImage(layers.Image{Src: "data:image/png;base64,AAAA", Width: 600, Height: 300})
	if l.ScaleX != 0.5 || l.ScaleY != 0.5 || l.Left != ImageLeft || r.SelectedID() != l.ID {
		t.Errorf("image layer = %+v", l.Transform)
	}
}

func TestAddImagePlacedInPixels(t *testing.T) {
	r := newReadyRenderer(1.5)
	l := r.AddImage(layers.Image{Src: "data:image/png;base64,AAAA", Width: 600, Height: 300})
	if math.Abs(l.Left-100/1.5) > 1e-9 || math.Abs(l.Top-100/1.5) > 1e-9 {
		t.Errorf("page position = %v,%v", l.Left, l.Top)
	}
	d := r.Render()[0]
	if math.Abs(d.Left-ImageLeft) > 1e-9 || math.Abs(d.Top-ImageTop) > 1e-9 {
		t.Errorf("drawn at %v,%v", d.Left, d.Top)
	}
	if w := d.Width * d.ScaleX; math.Abs(w-ImageMaxWidth) > 1e-9 {
		t.Errorf("drawn width = %v, want %v", w, ImageMaxWidth)
	}

	small := r.AddImage(layers.Image{Src: "data:image/png;base64,AAAA", Width: 100, Height: 50})
	if small.ScaleX != 1 {
		t.Errorf("small image scaled by %v", small.ScaleX)
	}
}
