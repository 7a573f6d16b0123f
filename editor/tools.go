package editor

import "fmt"

type CanvasMode string

const (
	CanvasNone     CanvasMode = ""
	CanvasAdvanced CanvasMode = "advanced" // page view with the annotation overlay
	CanvasGrid     CanvasMode = "grid"     // page or file grid, no overlay
)

// ToolConfig - one processing tool offered by the editor
type ToolConfig struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CanvasMode      CanvasMode `json:"canvasMode,omitempty"`
	ProcessEndpoint string     `json:"processEndpoint"`
}

func (t ToolConfig) HasOverlay() bool {
	return t.CanvasMode == CanvasAdvanced
}

var toolRegistry = map[string]ToolConfig{
	"edit_pdf":  {ID: "edit_pdf", Name: "Edit PDF", CanvasMode: CanvasAdvanced, ProcessEndpoint: "/api/edit-pdf"},
	"merge":     {ID: "merge", Name: "Merge PDF", CanvasMode: CanvasGrid, ProcessEndpoint: "/api/merge"},
	"compress":  {ID: "compress", Name: "Compress PDF", ProcessEndpoint: "/api/compress"},
	"pdf2word":  {ID: "pdf2word", Name: "PDF to Word", ProcessEndpoint: "/api/pdf2word"},
	"pdf2excel": {ID: "pdf2excel", Name: "PDF to Excel", ProcessEndpoint: "/api/pdf2excel"},
	"img2pdf":   {ID: "img2pdf", Name: "Image to PDF", CanvasMode: CanvasGrid, ProcessEndpoint: "/api/img2pdf"},
}

func LookupTool(id string) (ToolConfig, error) {
	t, ok := toolRegistry[id]
	if !ok {
		return ToolConfig{}, fmt.Errorf("%w: %q", ErrUnknownTool, id)
	}
	return t, nil
}
