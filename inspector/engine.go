package inspector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/zeptools/gw-pdfedit/coords"
	"github.com/zeptools/gw-pdfedit/layers"
	"github.com/zeptools/gw-pdfedit/overlay"
)

// ErrStale - an analysis result arrived for a page or mode that is no longer current
var ErrStale = errors.New("stale analysis result")

// Canvas is what the engine needs from the overlay renderer
type Canvas interface {
	AddLayer(l *layers.Layer) *layers.Layer
	BeginEditing(id layers.ID, selectAll bool) bool
	SetActiveTool(t overlay.Tool) bool
	InInspectMode() bool
	Page() int
	Mapper() coords.Mapper
}

const (
	WhiteoutFill    = "#ffffff"
	WhiteoutBleed   = 2 // screen pixels of extra height covering glyph descenders
	ConvertedFont   = "Inter"
	HoverStroke     = "#3b82f6"
	HoverFill       = "rgba(59, 130, 246, 0.1)"
	RegionTransient = "transparent"
)

// AnalyzeTimeout bounds one shared analysis request
const AnalyzeTimeout = 30 * time.Second

// Region is a hit-target over one text block. Regions are never layers and never exported.
type Region struct {
	Block   TextBlock
	Box     rect.Rect // page space
	Hovered bool
}

// Engine is the Inspector/Redaction engine of one editing session.
//
// Load is safe for concurrent use. Every other method mutates region state and
// must be called under the owning session's lock, like the Canvas itself.
type Engine struct {
	analyzer Analyzer
	canvas   Canvas
	status   overlay.StatusFunc

	group   singleflight.Group
	cacheMu sync.Mutex
	cache   map[int][]TextBlock

	active  bool
	page    int
	regions []*Region
}

func NewEngine(analyzer Analyzer, canvas Canvas, status overlay.StatusFunc) *Engine {
	return &Engine{
		analyzer: analyzer,
		canvas:   canvas,
		status:   status,
		cache:    make(map[int][]TextBlock),
	}
}

// Ensure Engine implements overlay.InspectorMode
var _ overlay.InspectorMode = (*Engine)(nil)

// Load returns the text blocks of a page. A page is requested from the analyzer at
// most once per session; concurrent loads of the same page share one request.
// The shared request outlives any single caller's ctx; a caller whose ctx ends
// stops waiting without cancelling it for the others. Failures are not cached.
func (e *Engine) Load(ctx context.Context, page int) ([]TextBlock, error) {
	if blocks, ok := e.cached(page); ok {
		return blocks, nil
	}
	ch := e.group.DoChan(strconv.Itoa(page), func() (any, error) {
		if blocks, ok := e.cached(page); ok {
			return blocks, nil
		}
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), AnalyzeTimeout)
		defer cancel()
		blocks, err := e.analyzer.Analyze(actx, page)
		if err != nil {
			return nil, err
		}
		e.cacheMu.Lock()
		e.cache[page] = blocks
		e.cacheMu.Unlock()
		return blocks, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("analyze page %d: %w", page, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("analyze page %d: %w", page, res.Err)
		}
		return res.Val.([]TextBlock), nil
	}
}

func (e *Engine) cached(page int) ([]TextBlock, bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	blocks, ok := e.cache[page]
	return blocks, ok
}

// Invalidate drops the cache, e.g. when the active document changes
func (e *Engine) Invalidate() {
	e.cacheMu.Lock()
	e.cache = make(map[int][]TextBlock)
	e.cacheMu.Unlock()
}

// Show installs the regions of a loaded page. The result is refused when the canvas
// has left inspect mode or moved to another page in the meantime.
func (e *Engine) Show(page int, blocks []TextBlock) error {
	if !e.canvas.InInspectMode() || e.canvas.Page() != page {
		return ErrStale
	}
	e.clearRegions()
	for _, b := range blocks {
		box, ok := b.Box()
		if !ok || b.Text == "" {
			continue
		}
		e.regions = append(e.regions, &Region{Block: b, Box: box})
	}
	e.active = true
	e.page = page
	e.notify("Click on text to edit", overlay.StatusNormal)
	return nil
}

// Fail reports an analysis failure. Inspect mode stays active with no regions.
func (e *Engine) Fail(page int, err error) {
	log.Printf("[ERROR][Inspector] page %d: %v", page, err)
	e.notify("Failed to analyze page text", overlay.StatusError)
}

// Deactivate removes every region. Converted layers stay.
func (e *Engine) Deactivate() {
	e.clearRegions()
	e.active = false
}

func (e *Engine) Active() bool {
	return e.active
}

func (e *Engine) clearRegions() {
	e.regions = nil
}

// Regions returns copies of the current regions
func (e *Engine) Regions() []Region {
	out := make([]Region, len(e.regions))
	for i, r := range e.regions {
		out[i] = *r
	}
	return out
}

// Hover highlights the region under p and clears the rest
func (e *Engine) Hover(p vec.Vec2) {
	hit := e.regionAt(p)
	for _, r := range e.regions {
		r.Hovered = r == hit
	}
}

// PointerDown converts the region under p, if any
func (e *Engine) PointerDown(p vec.Vec2) bool {
	r := e.regionAt(p)
	if r == nil {
		return false
	}
	e.convert(r)
	return true
}

// convert replaces a region with a non-selectable whiteout rect and an editable
// text layer in the same place, then hands control back to the select tool
func (e *Engine) convert(r *Region) {
	e.removeRegion(r)
	b := r.Block
	w, h := coords.Width(r.Box), coords.Height(r.Box)
	page := e.canvas.Page()

	whiteout := layers.NewRect(r.Box.LLx, r.Box.LLy, layers.Rect{
		Width:  w,
		Height: h + e.canvas.Mapper().LengthToPage(WhiteoutBleed),
		Fill:   WhiteoutFill,
	}, false)
	whiteout.Page = page
	e.canvas.AddLayer(whiteout)

	text := layers.NewText(r.Box.LLx, r.Box.LLy, layers.Text{
		Content:    b.Text,
		FontSize:   b.fontSize(),
		FontFamily: ConvertedFont,
		Fill:       b.fill(),
	})
	text.Page = page
	e.canvas.AddLayer(text)
	e.canvas.BeginEditing(text.ID, true)

	log.Printf("[INFO][Inspector] converted %q on page %d", b.Text, page)
	e.canvas.SetActiveTool(overlay.ToolSelect)
}

func (e *Engine) removeRegion(r *Region) {
	for i, x := range e.regions {
		if x == r {
			e.regions = append(e.regions[:i], e.regions[i+1:]...)
			return
		}
	}
}

func (e *Engine) regionAt(p vec.Vec2) *Region {
	for i := len(e.regions) - 1; i >= 0; i-- {
		if coords.Contains(e.regions[i].Box, p) {
			return e.regions[i]
		}
	}
	return nil
}

func (e *Engine) notify(msg string, kind overlay.StatusKind) {
	if e.status != nil {
		e.status(msg, kind)
	}
}

// RegionView is a region projected to pixel space for drawing
type RegionView struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
	Stroke string  `json:"stroke"`
	Fill   string  `json:"fill"`
}

// View projects the regions with the current mapper
func (e *Engine) View(m coords.Mapper) []RegionView {
	out := make([]RegionView, 0, len(e.regions))
	for _, r := range e.regions {
		px := m.RectToPixel(r.Box)
		v := RegionView{
			Left:   px.LLx,
			Top:    px.LLy,
			Width:  coords.Width(px),
			Height: coords.Height(px),
			Text:   r.Block.Text,
			Stroke: RegionTransient,
			Fill:   RegionTransient,
		}
		if r.Hovered {
			v.Stroke, v.Fill = HoverStroke, HoverFill
		}
		out = append(out, v)
	}
	return out
}
