package coords

import "math"

const (
	MinZoom  = 0.5
	MaxZoom  = 2.0
	ZoomStep = 0.1
)

// Zoom is the user zoom factor of the editing view, always within [MinZoom, MaxZoom]
type Zoom float64

func ClampZoom(z float64) Zoom {
	if math.IsNaN(z) {
		return 1
	}
	return Zoom(min(max(z, MinZoom), MaxZoom))
}

// Add returns the zoom after a delta, clamped. Rounded to 1/100 so repeated
// 0.1 steps do not drift (1.0 + 3*0.1 = 1.3, not 1.3000000000000003).
func (z Zoom) Add(delta float64) Zoom {
	return ClampZoom(math.Round((float64(z)+delta)*100) / 100)
}

// Percent is the zoom as displayed, e.g. 130
func (z Zoom) Percent() int {
	return int(math.Round(float64(z) * 100))
}

// Apply combines the zoom with a fit scale into the effective render scale
func (z Zoom) Apply(fitScale float64) float64 {
	return fitScale * float64(z)
}
