package result

import (
	"testing"
)

func TestBoxRectGeometry(t *testing.T) {

	tests := []struct {
		box    BoxRect
		area   float64
		valid  bool
		center [2]float64
	}{
		{BoxRect{0, 0, 10, 20}, 200, true, [2]float64{5, 10}},
		{BoxRect{5, 5, 5, 10}, 0, false, [2]float64{5, 7.5}},
		{BoxRect{10, 10, 0, 0}, 0, false, [2]float64{5, 5}},
	}

	for _, tc := range tests {
		if got := tc.box.Area(); got != tc.area {
			t.Errorf("Area(%v) = %f; want %f", tc.box, got, tc.area)
		}

		if got := tc.box.Valid(); got != tc.valid {
			t.Errorf("Valid(%v) = %v; want %v", tc.box, got, tc.valid)
		}

		cx, cy := tc.box.Center()

		if cx != tc.center[0] || cy != tc.center[1] {
			t.Errorf("Center(%v) = (%f, %f); want %v", tc.box, cx, cy, tc.center)
		}
	}
}

func TestBoxRectContains(t *testing.T) {

	outer := BoxRect{0, 0, 100, 100}

	if !outer.Contains(BoxRect{10, 10, 50, 50}) {
		t.Error("expected inner box to be contained")
	}

	if !outer.Contains(outer) {
		t.Error("expected box to contain itself")
	}

	if outer.Contains(BoxRect{50, 50, 101, 90}) {
		t.Error("expected box crossing the right edge not to be contained")
	}
}

func TestNewCandidateTranslates(t *testing.T) {

	det := DetectResult{
		Class:       2,
		Box:         BoxRect{10, 20, 30, 40},
		Probability: 0.8,
	}

	c := NewCandidate(7, det, "car", 1280, 640)

	want := BoxRect{1290, 660, 1310, 680}

	if c.Box != want {
		t.Errorf("Box = %v; want %v", c.Box, want)
	}

	if c.ID != 7 || c.Class != 2 || c.Label != "car" || c.TileX != 1280 || c.TileY != 640 {
		t.Errorf("unexpected candidate fields %+v", c)
	}
}

func TestIDGenerator(t *testing.T) {

	gen := NewIDGenerator()

	for want := int64(1); want <= 3; want++ {
		if got := gen.GetNext(); got != want {
			t.Errorf("GetNext() = %d; want %d", got, want)
		}
	}

	gen.Reset()

	if got := gen.GetNext(); got != 1 {
		t.Errorf("GetNext() after Reset = %d; want 1", got)
	}
}
