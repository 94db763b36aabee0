package ocr

import (
	"math"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// BoundingBox is an axis-aligned box in whole pixels
type BoundingBox struct {
	X0 int `json:"x0" yaml:"x0"`
	Y0 int `json:"y0" yaml:"y0"`
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
}

// ReduceQuad converts a quadrilateral to an axis-aligned box using a fixed
// corner contract: the left edge comes from corners 0 and 3, the top from
// 0 and 1, the right from 1 and 2 and the bottom from 2 and 3. Corners in
// any other order produce a wrong box; nothing here detects that.
func ReduceQuad(q engine.Quad) BoundingBox {
	return BoundingBox{
		X0: floor(math.Min(q[0].X, q[3].X)),
		Y0: floor(math.Min(q[0].Y, q[1].Y)),
		X1: floor(math.Max(q[1].X, q[2].X)),
		Y1: floor(math.Max(q[2].Y, q[3].Y)),
	}
}

func floor(v float64) int {
	return int(math.Floor(v))
}
