package geodetect

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"

	"github.com/swdee/go-geodetect/detector"
	"github.com/swdee/go-geodetect/geo"
	"github.com/swdee/go-geodetect/postprocess/result"
	"github.com/swdee/go-geodetect/raster"
)

var (
	background = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	objectRed  = color.NRGBA{R: 255, A: 255}
)

// redBoxDetector reports the bounding box of all pure red pixels in the image
// as a single class 0 detection
func redBoxDetector(img image.Image, conf float32) ([]result.DetectResult, error) {

	b := img.Bounds()
	found := false
	box := result.BoxRect{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()

			if r>>8 != 255 || g != 0 || bl != 0 {
				continue
			}

			found = true
			box.Left = math.Min(box.Left, float64(x-b.Min.X))
			box.Top = math.Min(box.Top, float64(y-b.Min.Y))
			box.Right = math.Max(box.Right, float64(x-b.Min.X+1))
			box.Bottom = math.Max(box.Bottom, float64(y-b.Min.Y+1))
		}
	}

	if !found {
		return nil, nil
	}

	return []result.DetectResult{{Class: 0, Box: box, Probability: 0.9}}, nil
}

func newTestPool(t *testing.T, size int, fn detector.Func) *Pool {

	pool, err := NewPool(size, "fake", func(string) (detector.Detector, error) {
		return fn, nil
	})

	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	t.Cleanup(func() { pool.Close() })

	return pool
}

// straddlingRaster returns a 200x100 raster with one red object across the
// boundary of the first two tiles
func straddlingRaster() *raster.Memory {

	img := imaging.New(200, 100, background)

	for y := 20; y < 50; y++ {
		for x := 70; x < 100; x++ {
			img.SetNRGBA(x, y, objectRed)
		}
	}

	return raster.NewMemory(img, geo.Affine{100, 0.001, 0, 50, 0, -0.001}, "EPSG:4326")
}

func testScanParams() ScanParams {

	p := DefaultScanParams()
	p.TileSize = 100
	p.Overlap = 0.2

	return p
}

func TestScanStraddlingObject(t *testing.T) {

	pool := newTestPool(t, 2, redBoxDetector)
	labels := NewLabels([]string{"target"})

	s, err := NewScanner(pool, labels, testScanParams(), WithLogger(zaptest.NewLogger(t).Sugar()))

	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	res, err := s.Scan(context.Background(), straddlingRaster())

	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// step 80 gives x origins 0,80,160 and y origins 0,80
	if len(res.Tiles) != 6 {
		t.Fatalf("got %d tile results; want 6", len(res.Tiles))
	}

	detected := 0

	for _, tr := range res.Tiles {
		if tr.Skipped() {
			t.Errorf("tile %d skipped: %v", tr.Tile.Index, tr.Err)
		}

		detected += len(tr.Candidates)
	}

	// the object is seen whole by tile 0 and clipped by tile 1
	if detected != 2 {
		t.Errorf("got %d candidates before dedup; want 2", detected)
	}

	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates after dedup; want 1", len(res.Candidates))
	}

	want := result.BoxRect{Left: 70, Top: 20, Right: 100, Bottom: 50}

	if res.Candidates[0].Box != want {
		t.Errorf("surviving box = %+v; want %+v", res.Candidates[0].Box, want)
	}

	if len(res.Collection.Features) != 1 {
		t.Fatalf("got %d features; want 1", len(res.Collection.Features))
	}

	f := res.Collection.Features[0]
	poly, ok := f.Geometry.(orb.Polygon)

	if !ok || len(poly[0]) != 5 {
		t.Fatalf("geometry = %#v; want 5 point polygon", f.Geometry)
	}

	if !nearPoint(poly[0][0], orb.Point{100.07, 49.98}) || !nearPoint(poly[0][2], orb.Point{100.1, 49.95}) {
		t.Errorf("polygon corners = %v", poly[0])
	}

	centroid, ok := f.Properties["centroid"].([]float64)

	if !ok || math.Abs(centroid[0]-49.965) > 1e-9 || math.Abs(centroid[1]-100.085) > 1e-9 {
		t.Errorf("centroid = %v; want [49.965 100.085]", f.Properties["centroid"])
	}

	if f.Properties["label"] != "target" {
		t.Errorf("label = %v; want target", f.Properties["label"])
	}

	if thumb, ok := f.Properties["image"].(string); !ok || thumb == "" {
		t.Errorf("expected a thumbnail, got %v", f.Properties["image"])
	}

	classes, ok := res.Collection.ExtraMembers["model_classes"].(map[string]string)

	if !ok || classes["0"] != "target" {
		t.Errorf("model_classes = %v", res.Collection.ExtraMembers["model_classes"])
	}
}

func nearPoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < 1e-9 && math.Abs(a[1]-b[1]) < 1e-9
}

func TestScanSkipsFailedTiles(t *testing.T) {

	// tiles at the right edge are 40 pixels wide, fail them
	failing := func(img image.Image, conf float32) ([]result.DetectResult, error) {
		if img.Bounds().Dx() == 40 {
			return nil, errors.New("inference error")
		}

		return redBoxDetector(img, conf)
	}

	p := testScanParams()
	p.SkipBlank = false
	p.Thumbnails = false

	s, err := NewScanner(newTestPool(t, 3, failing), NewLabels([]string{"target"}), p)

	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	res, err := s.Scan(context.Background(), straddlingRaster())

	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	skipped := 0

	for _, tr := range res.Tiles {
		if tr.Skipped() {
			skipped++

			if tr.Tile.X != 160 {
				t.Errorf("unexpected tile %+v skipped", tr.Tile)
			}
		}
	}

	if skipped != 2 {
		t.Errorf("got %d skipped tiles; want 2", skipped)
	}

	if len(res.Collection.Features) != 1 {
		t.Fatalf("got %d features; want 1", len(res.Collection.Features))
	}

	if res.Collection.Features[0].Properties["image"] != nil {
		t.Errorf("thumbnail present with thumbnails disabled")
	}
}

func TestScanBlankTiles(t *testing.T) {

	calls := make(chan struct{}, 10)

	counting := func(img image.Image, conf float32) ([]result.DetectResult, error) {
		calls <- struct{}{}
		return redBoxDetector(img, conf)
	}

	s, err := NewScanner(newTestPool(t, 1, counting), NewLabels(nil), testScanParams())

	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	res, err := s.Scan(context.Background(), straddlingRaster())

	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	blank := 0

	for _, tr := range res.Tiles {
		if tr.Blank {
			blank++
		}
	}

	// only the two tiles holding the object are run
	if blank != 4 || len(calls) != 2 {
		t.Errorf("got %d blank tiles and %d detector calls; want 4 and 2", blank, len(calls))
	}

	// labels without names fall back to the class number
	if res.Collection.Features[0].Properties["label"] != "0" {
		t.Errorf("label = %v; want 0", res.Collection.Features[0].Properties["label"])
	}

	if _, ok := res.Collection.ExtraMembers["model_classes"]; ok {
		t.Errorf("model_classes present without a label table")
	}
}

func TestScanCancelled(t *testing.T) {

	s, err := NewScanner(newTestPool(t, 2, redBoxDetector), NewLabels(nil), testScanParams())

	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Scan(ctx, straddlingRaster())

	if !errors.Is(err, context.Canceled) || res != nil {
		t.Errorf("got %v, %v; want nil result and context.Canceled", res, err)
	}
}

func TestScanUnusableRaster(t *testing.T) {

	s, err := NewScanner(newTestPool(t, 1, redBoxDetector), NewLabels(nil), testScanParams())

	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	img := imaging.New(10, 10, background)

	tests := []raster.Source{
		raster.NewMemory(img, geo.Affine{0, 1, 0, 0, 0, -1}, ""),
		raster.NewMemory(img, geo.Affine{}, "EPSG:4326"),
	}

	for _, src := range tests {
		if _, err := s.Scan(context.Background(), src); !errors.Is(err, ErrRasterUnavailable) {
			t.Errorf("err = %v; want ErrRasterUnavailable", err)
		}
	}
}

func TestNewScannerInvalidParams(t *testing.T) {

	pool := newTestPool(t, 1, redBoxDetector)

	p := DefaultScanParams()
	p.Overlap = 1

	if _, err := NewScanner(pool, NewLabels(nil), p); err == nil {
		t.Errorf("expected error for overlap 1")
	}

	if _, err := NewScanner(nil, NewLabels(nil), DefaultScanParams()); err == nil {
		t.Errorf("expected error for nil pool")
	}
}
