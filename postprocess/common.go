package postprocess

import (
	"github.com/swdee/go-geodetect/postprocess/result"
)

// clamp restricts the value x to be within the range min and max
func clamp(val, min, max float64) float64 {

	if val > min {

		if val < max {
			return val
		}

		return max
	}

	return min
}

// intersectionArea returns the area of overlap between two boxes
func intersectionArea(a, b result.BoxRect) float64 {
	x1 := max(a.Left, b.Left)
	y1 := max(a.Top, b.Top)
	x2 := min(a.Right, b.Right)
	y2 := min(a.Bottom, b.Bottom)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	return (x2 - x1) * (y2 - y1)
}

// IoU computes the Intersection-over-Union of two boxes.  Boxes are treated
// as continuous regions so a box 0..10 has a width of 10.  A pair with no
// union area has an IoU of zero.
func IoU(a, b result.BoxRect) float64 {

	inter := intersectionArea(a, b)

	if inter == 0 {
		return 0
	}

	union := a.Area() + b.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}
