// Package geo holds the geometry of the court in percentage space.
package geo

import (
	"math"

	"github.com/falconvolei/quadro/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Drag bounds: a dragged player never leaves the inner 90% of the court.
const (
	MinDragPercent = 5.0
	MaxDragPercent = 95.0
)

// XY converts a court position into a simplefeatures coordinate.
func XY(p core.Position) geom.XY {
	return geom.XY{X: p.X, Y: p.Y}
}

// Position converts a simplefeatures coordinate back into a court position.
func Position(xy geom.XY) core.Position {
	return core.Position{X: xy.X, Y: xy.Y}
}

// Distance is the Euclidean distance between a and b in percentage space.
func Distance(a core.Position, b geom.XY) float64 {
	return XY(a).Sub(b).Length()
}

// ClampDrag limits p to the draggable area of the court. NaN coordinates
// clamp to the lower bound.
func ClampDrag(p core.Position) core.Position {
	return core.Position{
		X: clamp(p.X, MinDragPercent, MaxDragPercent),
		Y: clamp(p.Y, MinDragPercent, MaxDragPercent),
	}
}

// ToPixels scales a court position into a box of the given pixel size whose
// top-left corner sits at origin.
func ToPixels(p core.Position, origin geom.XY, width, height float64) geom.XY {
	return geom.XY{
		X: origin.X + p.X/100*width,
		Y: origin.Y + p.Y/100*height,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
