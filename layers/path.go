package layers

import (
	"encoding/json"
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// PathCommand is one SVG-like drawing command: M x y | L x y | Q cx cy x y
// It marshals to the array form ["M", x, y] consumed by the renderer.
type PathCommand struct {
	Op   string
	Args []float64
}

func (c PathCommand) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, len(c.Args)+1)
	arr = append(arr, c.Op)
	for _, a := range c.Args {
		arr = append(arr, a)
	}
	return json.Marshal(arr)
}

func (c *PathCommand) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("empty path command")
	}
	if err := json.Unmarshal(raw[0], &c.Op); err != nil {
		return fmt.Errorf("path command op: %w", err)
	}
	c.Args = make([]float64, len(raw)-1)
	for i, r := range raw[1:] {
		if err := json.Unmarshal(r, &c.Args[i]); err != nil {
			return fmt.Errorf("path command arg %d: %w", i, err)
		}
	}
	return nil
}

// PathFromPoints turns a pointer gesture (page space) into M/L commands
func PathFromPoints(points []vec.Vec2) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	cmds := make([]PathCommand, 0, len(points))
	cmds = append(cmds, PathCommand{Op: "M", Args: []float64{points[0].X, points[0].Y}})
	for _, p := range points[1:] {
		cmds = append(cmds, PathCommand{Op: "L", Args: []float64{p.X, p.Y}})
	}
	return cmds
}

// pathBounds covers every coordinate pair of the commands, control points included
func pathBounds(cmds []PathCommand) (rect.Rect, bool) {
	b := rect.Rect{LLx: math.Inf(1), LLy: math.Inf(1), URx: math.Inf(-1), URy: math.Inf(-1)}
	found := false
	for _, c := range cmds {
		for i := 0; i+1 < len(c.Args); i += 2 {
			x, y := c.Args[i], c.Args[i+1]
			b.LLx, b.URx = min(b.LLx, x), max(b.URx, x)
			b.LLy, b.URy = min(b.LLy, y), max(b.URy, y)
			found = true
		}
	}
	return b, found
}

// PathOrigin is the top-left of the command bounds, used as Left/Top of a new path layer
func PathOrigin(cmds []PathCommand) vec.Vec2 {
	b, ok := pathBounds(cmds)
	if !ok {
		return vec.Vec2{}
	}
	return vec.Vec2{X: b.LLx, Y: b.LLy}
}
