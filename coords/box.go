package coords

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Box builds a normalized rectangle from two opposite corners.
// LLx/LLy always hold the minimum, URx/URy the maximum.
func Box(x0, y0, x1, y1 float64) rect.Rect {
	return rect.Rect{
		LLx: min(x0, x1),
		LLy: min(y0, y1),
		URx: max(x0, x1),
		URy: max(y0, y1),
	}
}

// BoxFromSlice reads a [x0, y0, x1, y1] bounding box as sent by the analysis service
func BoxFromSlice(bbox []float64) (rect.Rect, bool) {
	if len(bbox) < 4 {
		return rect.Rect{}, false
	}
	return Box(bbox[0], bbox[1], bbox[2], bbox[3]), true
}

func Width(r rect.Rect) float64  { return r.URx - r.LLx }
func Height(r rect.Rect) float64 { return r.URy - r.LLy }

// TopLeft is the min corner of the box
func TopLeft(r rect.Rect) vec.Vec2 {
	return vec.Vec2{X: r.LLx, Y: r.LLy}
}

// Contains reports whether p is inside r, edges included
func Contains(r rect.Rect, p vec.Vec2) bool {
	return p.X >= r.LLx && p.X <= r.URx && p.Y >= r.LLy && p.Y <= r.URy
}
