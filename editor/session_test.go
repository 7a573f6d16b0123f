package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/imgsrc"
	"github.com/zeptools/gw-pdfedit/inspector"
	"github.com/zeptools/gw-pdfedit/layers"
	"github.com/zeptools/gw-pdfedit/overlay"
)

var letter = coords.Size{Width: 612, Height: 792}

func newEditSession(t *testing.T, b *fakeBackend, tasks TaskRecorder) (*Session, *fakeRasterizer) {
	t.Helper()
	tool, err := LookupTool("edit_pdf")
	if err != nil {
		t.Fatal(err)
	}
	r := &fakeRasterizer{natural: letter}
	deps := Deps{Backend: b, Rasterizer: r, Limits: Limits{MaxUploadBytes: 1 << 20}}
	if tasks != nil {
		deps.Tasks = tasks
	}
	s := newSession("sid-1", tool, []File{{Name: "a.pdf"}}, deps, nil)
	s.SetViewport(context.Background(), 612)
	return s, r
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		runtime.Gosched()
	}
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return imgsrc.Encode("image/png", buf.Bytes())
}

func TestEditFlow(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{blocks: map[int][]inspector.TextBlock{
		1: {{Text: "Invoice #1", BBox: []float64{100, 100, 300, 120}, Size: 12, Color: "#000000"}},
	}}
	tasks := &fakeTasks{}
	s, r := newEditSession(t, b, tasks)

	gen, err := s.Navigate(ctx, 1)
	if err != nil || gen != 1 {
		t.Fatalf("navigate = %d, %v", gen, err)
	}
	if diff := cmp.Diff([]float64{1}, r.scales); diff != "" {
		t.Errorf("render scales (-want +got):\n%s", diff)
	}
	if err = s.SetActiveTool(ctx, overlay.ToolTextEdit); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.Mode != "text-edit" || len(st.Regions) != 1 || st.Status.Message != "Click on text to edit" {
		t.Fatalf("inspect state: mode=%s regions=%d status=%q", st.Mode, len(st.Regions), st.Status.Message)
	}

	if hit, _ := s.Pointer(PointerDown, vec.Vec2{X: 150, Y: 110}); !hit {
		t.Fatal("region not converted")
	}
	if !s.EditText("Invoice #2") {
		t.Error("converted text not in edit mode")
	}
	if st = s.Snapshot(); st.Mode != "select" || st.LayerCount != 2 || len(st.Regions) != 0 {
		t.Errorf("after convert: mode=%s layers=%d regions=%d", st.Mode, st.LayerCount, len(st.Regions))
	}

	redirect, err := s.Submit(ctx)
	if err != nil || redirect != "/download/sid-1.pdf" {
		t.Fatalf("submit = %q, %v", redirect, err)
	}
	recs := b.applied[0]
	if len(recs) != 2 || recs[0].Type != layers.KindRect || recs[0].Height != 22 || recs[1].Text != "Invoice #2" {
		t.Errorf("applied = %+v", recs)
	}
	want := []taskEvent{{"begin", 1, "edit_pdf"}, {"complete", 1, "/download/sid-1.pdf"}}
	if diff := cmp.Diff(want, tasks.events, cmp.AllowUnexported(taskEvent{})); diff != "" {
		t.Errorf("task events (-want +got):\n%s", diff)
	}
	if s.Status().Kind != overlay.StatusSuccess {
		t.Errorf("status = %+v", s.Status())
	}
}

func TestStaleRenderIsDropped(t *testing.T) {
	s, _ := newEditSession(t, &fakeBackend{}, nil)
	g1, _ := s.BeginNavigation(1)
	g2, _ := s.BeginNavigation(2)
	if err := s.CompletePageRender(context.Background(), g1, letter); !errors.Is(err, ErrStale) {
		t.Fatalf("stale render err = %v", err)
	}
	if s.Snapshot().PageReady {
		t.Error("stale render made the page ready")
	}
	if err := s.CompletePageRender(context.Background(), g2, letter); err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); !st.PageReady || st.Page != 2 || st.Generation != 2 {
		t.Errorf("state = ready %v page %d gen %d", st.PageReady, st.Page, st.Generation)
	}
}

func TestNavigationBounds(t *testing.T) {
	s, _ := newEditSession(t, &fakeBackend{}, nil)
	s.SetPageCount(3)
	for _, page := range []int{0, 4} {
		if _, err := s.BeginNavigation(page); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("page %d err = %v", page, err)
		}
	}
	if s.Generation() != 0 {
		t.Error("rejected navigation moved the generation")
	}
}

func TestAnalysisDiscardedAfterNavigation(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	b := &fakeBackend{analyzeFn: func(page int) ([]inspector.TextBlock, error) {
		close(started)
		<-release
		return []inspector.TextBlock{{Text: "late", BBox: []float64{0, 0, 10, 10}}}, nil
	}}
	s, _ := newEditSession(t, b, nil)
	if _, err := s.Navigate(ctx, 1); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() { errc <- s.SetActiveTool(ctx, overlay.ToolTextEdit) }()
	<-started
	if _, err := s.BeginNavigation(2); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-errc; !errors.Is(err, ErrStale) {
		t.Errorf("late analysis err = %v", err)
	}
	if n := len(s.Snapshot().Regions); n != 0 {
		t.Errorf("regions = %d after navigation", n)
	}
}

func TestAnalysisFailureKeepsMode(t *testing.T) {
	b := &fakeBackend{analyzeFn: func(page int) ([]inspector.TextBlock, error) { return nil, errBackendDown }}
	s, _ := newEditSession(t, b, nil)
	if _, err := s.Navigate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveTool(context.Background(), overlay.ToolTextEdit); !errors.Is(err, errBackendDown) {
		t.Errorf("err = %v", err)
	}
	st := s.Snapshot()
	if st.Mode != "text-edit" || st.Status.Kind != overlay.StatusError || len(st.Regions) != 0 {
		t.Errorf("state = mode %s status %+v", st.Mode, st.Status)
	}
}

func TestZoomChangesOnlyScale(t *testing.T) {
	s, r := newEditSession(t, &fakeBackend{}, nil)
	s.SetViewport(context.Background(), 918)
	if len(r.scales) != 0 {
		t.Fatalf("repainted before any page: %v", r.scales)
	}
	if _, err := s.Navigate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTextBox(vec.Vec2{X: 150, Y: 150}, "hi"); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, _, err := s.Zoom(context.Background(), coords.ZoomStep); err != nil {
			t.Fatal(err)
		}
	}
	st := s.Snapshot()
	if st.ZoomPercent != 130 || math.Abs(st.Scale-1.95) > 1e-9 || r.scales[0] != 1.5 {
		t.Errorf("zoom %d%% scale %v first render %v", st.ZoomPercent, st.Scale, r.scales[0])
	}
	if len(r.scales) != 4 || math.Abs(r.scales[3]-1.95) > 1e-9 {
		t.Errorf("renders = %v, want one per zoom step", r.scales)
	}
	if st.Generation != 4 || !st.PageReady {
		t.Errorf("generation %d ready %v", st.Generation, st.PageReady)
	}
	l := s.Layers()[0]
	if l.Left != 100 || l.Top != 100 {
		t.Errorf("layer moved in page space: %v,%v", l.Left, l.Top)
	}
	if math.Abs(st.Objects[0].Left-195) > 1e-9 {
		t.Errorf("drawn left = %v", st.Objects[0].Left)
	}
	if z, _, _ := s.Zoom(context.Background(), 5); float64(z) != coords.MaxZoom {
		t.Errorf("zoom = %v", z)
	}
	renders := len(r.scales)
	if _, gen, _ := s.Zoom(context.Background(), 1); gen != s.Generation() || len(r.scales) != renders {
		t.Errorf("clamped zoom repainted: gen %d renders %d", gen, len(r.scales))
	}
}

func TestZoomStartsNewGeneration(t *testing.T) {
	tool, err := LookupTool("edit_pdf")
	if err != nil {
		t.Fatal(err)
	}
	s := newSession("sid-2", tool, nil, Deps{Backend: &fakeBackend{}}, nil)
	ctx := context.Background()
	gen, err := s.Navigate(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.CompletePageRender(ctx, gen, letter); err != nil {
		t.Fatal(err)
	}

	_, zgen, err := s.Zoom(ctx, coords.ZoomStep)
	if err != nil {
		t.Fatal(err)
	}
	if zgen != gen+1 || s.Snapshot().PageReady {
		t.Fatalf("after zoom: gen %d (was %d) ready %v", zgen, gen, s.Snapshot().PageReady)
	}
	if err = s.CompletePageRender(ctx, gen, letter); !errors.Is(err, ErrStale) {
		t.Errorf("render of old scale err = %v", err)
	}
	if err = s.CompletePageRender(ctx, zgen, letter); err != nil || !s.Snapshot().PageReady {
		t.Errorf("render of new scale err = %v", err)
	}

	vgen, err := s.SetViewport(ctx, 918)
	if err != nil || vgen != zgen+1 || s.Snapshot().PageReady {
		t.Errorf("after viewport: gen %d err %v ready %v", vgen, err, s.Snapshot().PageReady)
	}
}

func TestPageConfigs(t *testing.T) {
	s, _ := newEditSession(t, &fakeBackend{}, nil)
	var c PageConfig
	for range 4 {
		c, _ = s.RotatePage(1, 90)
	}
	if c.Rotation != 0 {
		t.Errorf("4 quarter turns = %d", c.Rotation)
	}
	if c, _ = s.RotatePage(2, -90); c.Rotation != 270 {
		t.Errorf("-90 = %d", c.Rotation)
	}
	if c, _ = s.DeletePage(2); !c.Deleted || c.Rotation != 270 {
		t.Errorf("delete = %+v", c)
	}
	if _, err := s.RotatePage(0, 90); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("page 0 err = %v", err)
	}
	if !s.ResetPage(2) || s.ResetPage(2) {
		t.Error("reset should succeed exactly once")
	}
	if diff := cmp.Diff([]PageConfig{{PageNum: 1}}, s.PageConfigs()); diff != "" {
		t.Errorf("configs (-want +got):\n%s", diff)
	}
}

func TestFileValidation(t *testing.T) {
	b := &fakeBackend{}
	s, _ := newEditSession(t, b, nil)
	ctx := context.Background()

	big := Upload{Name: "big.pdf", ContentType: "application/pdf", Size: 2 << 20, Body: bytes.NewReader(nil)}
	small := Upload{Name: "b.pdf", ContentType: "application/pdf", Size: 10, Body: bytes.NewReader(nil)}
	if _, err := s.AddFiles(ctx, []Upload{small, big}); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversized err = %v", err)
	}
	if len(b.uploads) != 0 {
		t.Error("partial batch uploaded")
	}
	if _, err := s.AddFiles(ctx, nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("empty err = %v", err)
	}
	odd := Upload{Name: "notes.bin", ContentType: "application/x-weird", Size: 1, Body: bytes.NewReader(nil)}
	if _, err := s.AddFiles(ctx, []Upload{small, odd}); err != nil {
		t.Fatalf("unknown type should only warn: %v", err)
	}
	if n := len(s.Files()); n != 3 {
		t.Fatalf("files = %d", n)
	}

	if err := s.SwapFiles(0, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReplaceFile(ctx, 9, small); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("replace err = %v", err)
	}
	f, err := s.RemoveFile(0)
	if err != nil || f.Name != "notes.bin" {
		t.Errorf("removed %+v, %v", f, err)
	}
	names := []string{}
	for _, f := range s.Files() {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"b.pdf", "a.pdf"}, names); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
}

func TestSubmitBusy(t *testing.T) {
	b := &fakeBackend{applyWait: make(chan struct{})}
	s, _ := newEditSession(t, b, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx)
		first <- err
	}()
	waitFor(t, func() bool { return s.Status().Message == "Applying changes..." })
	if _, err := s.Submit(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent submit err = %v", err)
	}
	close(b.applyWait)
	if err := <-first; err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(ctx); err != nil {
		t.Errorf("submit after release: %v", err)
	}
}

func TestSubmitFailureKeepsOverlay(t *testing.T) {
	b := &fakeBackend{applyErr: errBackendDown}
	tasks := &fakeTasks{}
	s, _ := newEditSession(t, b, tasks)
	if _, err := s.Navigate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTextBox(vec.Vec2{X: 10, Y: 10}, "keep"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, errBackendDown) {
		t.Fatalf("err = %v", err)
	}
	if len(s.Layers()) != 1 {
		t.Error("overlay lost on failure")
	}
	if len(tasks.events) != 2 || tasks.events[1].op != "fail" || tasks.events[1].detail != "backend down" {
		t.Errorf("events = %+v", tasks.events)
	}
}

func TestAddImage(t *testing.T) {
	s, _ := newEditSession(t, &fakeBackend{}, nil)
	src := pngDataURL(t, 600, 100)
	if _, err := s.AddImage("blob:https://app/1"); !errors.Is(err, ErrNotSelfContained) {
		t.Errorf("blob err = %v", err)
	}
	if _, err := s.AddSignature(src); !errors.Is(err, ErrPageNotReady) {
		t.Errorf("not ready err = %v", err)
	}
	if _, err := s.Navigate(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	l, err := s.AddImage(src)
	if err != nil {
		t.Fatal(err)
	}
	if l.Image.Width != 600 || l.ScaleX != 0.5 {
		t.Errorf("image = %+v scale %v", l.Image.Width, l.ScaleX)
	}
	if s.Status().Message != "Image added" {
		t.Errorf("status = %q", s.Status().Message)
	}
}

func TestProcessGridTool(t *testing.T) {
	b := &fakeBackend{}
	tool, _ := LookupTool("merge")
	s := newSession("sid-m", tool, nil, Deps{Backend: b}, nil)
	if _, err := s.Process(context.Background()); !errors.Is(err, ErrNoFiles) {
		t.Errorf("no files err = %v", err)
	}
	if _, err := s.AddFiles(context.Background(), []Upload{{Name: "a.pdf", Size: 1}, {Name: "b.pdf", Size: 1}}); err != nil {
		t.Fatal(err)
	}
	s.RotatePage(3, -90)
	redirect, err := s.Process(context.Background())
	if err != nil || redirect != "/download/merge.zip" {
		t.Fatalf("process = %q, %v", redirect, err)
	}
	want := ProcessRequest{Files: []string{"a.pdf", "b.pdf"}, PagesConfig: []PageConfig{{PageNum: 3, Rotation: 270}}}
	if diff := cmp.Diff(want, b.processed[0]); diff != "" {
		t.Errorf("request (-want +got):\n%s", diff)
	}
	if st := s.Snapshot(); st.Mode != "inactive" {
		t.Errorf("grid tool mode = %s", st.Mode)
	}
}

func TestExportEmpty(t *testing.T) {
	s, _ := newEditSession(t, &fakeBackend{}, nil)
	b, err := s.ExportLayersJSON()
	if err != nil || string(b) != `{"layers":[]}` {
		t.Errorf("export = %s, %v", b, err)
	}
}

func TestExportCountFollowsSurface(t *testing.T) {
	s, _ := newEditSession(t, &fakeBackend{}, nil)
	ctx := context.Background()
	check := func(step string, want int) {
		t.Helper()
		recs, err := s.ExportLayers()
		if err != nil {
			t.Fatalf("%s: %v", step, err)
		}
		if n := s.Snapshot().LayerCount; len(recs) != n || n != want {
			t.Errorf("%s: exported %d, surface %d, want %d", step, len(recs), n, want)
		}
	}
	check("empty", 0)

	if _, err := s.Navigate(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTextBox(vec.Vec2{X: 50, Y: 50}, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddImage(pngDataURL(t, 40, 40)); err != nil {
		t.Fatal(err)
	}
	check("text + image", 2)

	if _, ok := s.DeleteSelected(); !ok {
		t.Fatal("image not deleted")
	}
	check("after delete", 1)

	if _, err := s.Navigate(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTextBox(vec.Vec2{X: 10, Y: 10}, "b"); err != nil {
		t.Fatal(err)
	}
	check("second page", 2)

	if n := s.ClearCanvas(); n != 2 {
		t.Errorf("cleared %d", n)
	}
	check("after clear", 0)
	if _, err := s.AddTextBox(vec.Vec2{X: 10, Y: 10}, "c"); err != nil {
		t.Fatal(err)
	}
	check("after re-add", 1)
}
