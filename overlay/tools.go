package overlay

type Tool string

const (
	ToolNone      Tool = ""
	ToolSelect    Tool = "selectTool"
	ToolTextEdit  Tool = "textEditTool" // inspector: edit existing PDF text
	ToolText      Tool = "textTool"
	ToolImage     Tool = "imageTool"
	ToolSignature Tool = "signatureTool"
	ToolDraw      Tool = "drawTool"
	ToolHighlight Tool = "highlightTool"
)

type Mode int

const (
	ModeInactive Mode = iota
	ModeSelect
	ModeTextInsert
	ModeInspect
	ModeFreeDraw
	ModeHighlight
)

func (m Mode) String() string {
	switch m {
	case ModeSelect:
		return "select"
	case ModeTextInsert:
		return "text-insert"
	case ModeInspect:
		return "text-edit"
	case ModeFreeDraw:
		return "free-draw"
	case ModeHighlight:
		return "highlight"
	}
	return "inactive"
}

// image and signature tools open a picker outside the canvas, the canvas itself stays in select
var toolModes = map[Tool]Mode{
	ToolNone:      ModeInactive,
	ToolSelect:    ModeSelect,
	ToolTextEdit:  ModeInspect,
	ToolText:      ModeTextInsert,
	ToolImage:     ModeSelect,
	ToolSignature: ModeSelect,
	ToolDraw:      ModeFreeDraw,
	ToolHighlight: ModeHighlight,
}

func ModeOf(t Tool) (Mode, bool) {
	m, ok := toolModes[t]
	return m, ok
}

type Brush struct {
	Color string
	Width float64
}

var (
	DrawBrush      = Brush{Color: "#000000", Width: 2}
	HighlightBrush = Brush{Color: "rgba(255, 255, 0, 0.4)", Width: 20}
)

// Defaults for new objects, page-space units
const (
	DefaultText        = "Edit me"
	DefaultFontFamily  = "Inter"
	DefaultFontSize    = 16
	DefaultTextFill    = "#000000"
	DefaultTextBg      = "rgba(255,255,255,0.8)"
	DefaultTextPadding = 5
)

// Placement of new images, screen pixels at the current scale
const (
	ImageMaxWidth = 300
	ImageLeft     = 100
	ImageTop      = 100
)

type StatusKind string

const (
	StatusNormal  StatusKind = "normal"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// StatusFunc receives user-facing status lines
type StatusFunc func(msg string, kind StatusKind)
