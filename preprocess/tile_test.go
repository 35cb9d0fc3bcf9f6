package preprocess

import (
	"math"
	"testing"

	clipper "github.com/ctessum/go.clipper"
	"github.com/google/go-cmp/cmp"
)

// pathArea returns the signed area of a polygon using the shoelace formula
func pathArea(p clipper.Path) float64 {
	var a float64

	for i := range p {
		j := (i + 1) % len(p)
		a += float64(p[i].X)*float64(p[j].Y) - float64(p[j].X)*float64(p[i].Y)
	}

	return a / 2
}

// unionArea returns the area covered by the union of all tiles
func unionArea(tiles []Tile) float64 {

	var paths clipper.Paths

	for _, t := range tiles {
		x1, y1 := clipper.CInt(t.X), clipper.CInt(t.Y)
		x2, y2 := clipper.CInt(t.X+t.Width), clipper.CInt(t.Y+t.Height)

		paths = append(paths, clipper.Path{
			&clipper.IntPoint{X: x1, Y: y1},
			&clipper.IntPoint{X: x2, Y: y1},
			&clipper.IntPoint{X: x2, Y: y2},
			&clipper.IntPoint{X: x1, Y: y2},
		})
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(paths, clipper.PtSubject, true)

	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return -1
	}

	var area float64

	for _, p := range solution {
		area += pathArea(p)
	}

	return math.Abs(area)
}

func TestTileSchedulerExample(t *testing.T) {

	s, err := NewTileScheduler(2560, 1280, 1280, 0)

	if err != nil {
		t.Fatalf("NewTileScheduler failed: %v", err)
	}

	want := []Tile{
		{Index: 0, X: 0, Y: 0, Width: 1280, Height: 1280},
		{Index: 1, X: 1280, Y: 0, Width: 1280, Height: 1280},
	}

	if diff := cmp.Diff(want, s.Tiles()); diff != "" {
		t.Errorf("unexpected tiles (-want +got):\n%s", diff)
	}
}

func TestTileSchedulerEdgeTiles(t *testing.T) {

	s, err := NewTileScheduler(1000, 500, 400, 0.5)

	if err != nil {
		t.Fatalf("NewTileScheduler failed: %v", err)
	}

	if s.Step() != 200 {
		t.Fatalf("Step() = %d; want 200", s.Step())
	}

	tiles := s.Tiles()

	// x origins 0,200,400,600,800 and y origins 0,200,400
	if len(tiles) != 15 || s.Len() != 15 {
		t.Fatalf("got %d tiles, Len() = %d; want 15", len(tiles), s.Len())
	}

	last := tiles[len(tiles)-1]
	want := Tile{Index: 14, X: 800, Y: 400, Width: 200, Height: 100}

	if last != want {
		t.Errorf("last tile = %+v; want %+v", last, want)
	}
}

func TestTileSchedulerCoverage(t *testing.T) {

	tests := []struct {
		width, height, tileSize int
		overlap                 float64
	}{
		{2560, 1280, 1280, 0},
		{3000, 2000, 1280, 0},
		{3000, 2000, 1280, 0.2},
		{1000, 700, 640, 0.33},
		{50, 30, 640, 0.5},
		{1281, 1279, 1280, 0.1},
	}

	for _, tc := range tests {
		s, err := NewTileScheduler(tc.width, tc.height, tc.tileSize, tc.overlap)

		if err != nil {
			t.Fatalf("NewTileScheduler(%+v) failed: %v", tc, err)
		}

		tiles := s.Tiles()

		for _, tile := range tiles {
			if tile.X+tile.Width > tc.width || tile.Y+tile.Height > tc.height {
				t.Errorf("%+v: tile %+v exceeds raster bounds", tc, tile)
			}

			if tile.Width > tc.tileSize || tile.Height > tc.tileSize || tile.Width <= 0 || tile.Height <= 0 {
				t.Errorf("%+v: tile %+v has invalid size", tc, tile)
			}
		}

		if got, want := unionArea(tiles), float64(tc.width*tc.height); got != want {
			t.Errorf("%+v: union area of tiles = %f; want %f", tc, got, want)
		}
	}
}

func TestTileIteratorRestartable(t *testing.T) {

	s, err := NewTileScheduler(3000, 2000, 1280, 0.2)

	if err != nil {
		t.Fatalf("NewTileScheduler failed: %v", err)
	}

	first := s.Tiles()

	// partially consume an iterator, a new one must start from the beginning
	it := s.Iter()
	it.Next()
	it.Next()

	if diff := cmp.Diff(first, s.Tiles()); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}

	if tile, ok := s.Iter().Next(); !ok || tile.Index != 0 || tile.X != 0 || tile.Y != 0 {
		t.Errorf("fresh iterator started at %+v", tile)
	}
}

func TestTileSchedulerInvalid(t *testing.T) {

	tests := []struct {
		width, height, tileSize int
		overlap                 float64
	}{
		{0, 100, 10, 0},
		{100, 100, 0, 0},
		{100, 100, 10, 1},
		{100, 100, 10, -0.1},
		{100, 100, 1, 0.5},
	}

	for _, tc := range tests {
		if _, err := NewTileScheduler(tc.width, tc.height, tc.tileSize, tc.overlap); err == nil {
			t.Errorf("expected error for %+v, got nil", tc)
		}
	}
}
