package geo

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/swdee/go-geodetect/postprocess/result"
)

const degTolerance = 1e-9

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMercatorRoundTrip(t *testing.T) {

	tests := []struct {
		lon, lat float64
	}{
		{0, 0},
		{-122.4194, 37.7749},
		{151.2093, -33.8688},
		{179.999, 85.05},
		{-179.999, -85.05},
	}

	for _, tc := range tests {
		x, y, err := MercatorForward(tc.lon, tc.lat)

		if err != nil {
			t.Fatalf("MercatorForward(%f, %f) failed: %v", tc.lon, tc.lat, err)
		}

		lon, lat, err := MercatorInverse(x, y)

		if err != nil {
			t.Fatalf("MercatorInverse(%f, %f) failed: %v", x, y, err)
		}

		if !near(lon, tc.lon, degTolerance) || !near(lat, tc.lat, degTolerance) {
			t.Errorf("round trip of %f,%f gave %f,%f", tc.lon, tc.lat, lon, lat)
		}
	}

	x, _, err := MercatorForward(180, 0)

	if err != nil || !near(x, 20037508.342789244, 1e-6) {
		t.Errorf("MercatorForward(180, 0) x = %f, err %v; want 20037508.342789", x, err)
	}
}

func TestMercatorLimits(t *testing.T) {

	for _, lat := range []float64{86, -86, math.NaN()} {
		if _, _, err := MercatorForward(0, lat); !errors.Is(err, ErrProjection) {
			t.Errorf("MercatorForward(0, %f) err = %v; want ErrProjection", lat, err)
		}
	}

	if _, _, err := (Mercator{}).Offset(89, 0, 1, 1); !errors.Is(err, ErrProjection) {
		t.Errorf("Offset beyond mercator limit err = %v; want ErrProjection", err)
	}
}

func TestCameraProjectCenter(t *testing.T) {

	pose := DefaultCameraPose(-33.8688, 151.2093)
	pose.YawDeg = 37

	for _, off := range []LocalOffsetter{Mercator{}, Geodesic{}} {
		c := &CameraProjector{Offset: off}

		lat, lon, err := c.Project(2000, 1500, 4000, 3000, pose)

		if err != nil {
			t.Fatalf("%T: Project failed: %v", off, err)
		}

		if !near(lat, pose.Lat, degTolerance) || !near(lon, pose.Lon, degTolerance) {
			t.Errorf("%T: image center projected to %f,%f; want %f,%f",
				off, lat, lon, pose.Lat, pose.Lon)
		}
	}
}

func TestCameraProjectOffset(t *testing.T) {

	pose := DefaultCameraPose(0, 0)
	c := NewCameraProjector()

	w, h := 1000, 800
	fx := pose.FocalMM / pose.SensorWidthMM * float64(w)
	east := 500 / fx * pose.AltM

	// right edge of the image, yaw 0 moves east only
	lat, lon, err := c.Project(1000, 400, w, h, pose)

	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	wantLon := east / EarthRadiusM * 180 / math.Pi

	if !near(lat, 0, degTolerance) || !near(lon, wantLon, degTolerance) {
		t.Errorf("got %f,%f; want 0,%f", lat, lon, wantLon)
	}

	// top of the image is north
	lat, lon, err = c.Project(500, 0, w, h, pose)

	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if lat <= 0 || !near(lon, 0, degTolerance) {
		t.Errorf("top center projected to %f,%f; want north of camera", lat, lon)
	}

	// a yaw of 90 degrees rotates the right edge offset onto the north axis
	pose.YawDeg = 90
	lat, lon, err = c.Project(1000, 400, w, h, pose)

	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if !near(lat, wantLon, 1e-8) || !near(lon, 0, 1e-8) {
		t.Errorf("yaw 90 right edge projected to %f,%f; want %f,0", lat, lon, wantLon)
	}
}

func TestCameraProjectInvalid(t *testing.T) {

	c := NewCameraProjector()
	good := DefaultCameraPose(10, 10)

	noFocal := good
	noFocal.FocalMM = 0

	noSensor := good
	noSensor.SensorWidthMM = -1

	nanAlt := good
	nanAlt.AltM = math.NaN()

	tests := []struct {
		name string
		w, h int
		pose CameraPose
	}{
		{"zero width", 0, 100, good},
		{"zero focal", 100, 100, noFocal},
		{"negative sensor", 100, 100, noSensor},
		{"nan altitude", 100, 100, nanAlt},
	}

	for _, tc := range tests {
		if _, _, err := c.Project(1, 1, tc.w, tc.h, tc.pose); !errors.Is(err, ErrProjection) {
			t.Errorf("%s: err = %v; want ErrProjection", tc.name, err)
		}
	}
}

func TestGeodesicAgreesWithMercatorAtEquator(t *testing.T) {

	offsets := [][2]float64{{25, 0}, {0, -40}, {-30, 30}, {12.5, 7}}

	for _, o := range offsets {
		mLat, mLon, err := (Mercator{}).Offset(0.001, 36.8, o[0], o[1])

		if err != nil {
			t.Fatalf("Mercator offset failed: %v", err)
		}

		gLat, gLon, err := (Geodesic{}).Offset(0.001, 36.8, o[0], o[1])

		if err != nil {
			t.Fatalf("Geodesic offset failed: %v", err)
		}

		if !near(mLat, gLat, 1e-6) || !near(mLon, gLon, 1e-6) {
			t.Errorf("offset %v: mercator %f,%f geodesic %f,%f", o, mLat, mLon, gLat, gLon)
		}
	}
}

func TestAffineSingular(t *testing.T) {

	tests := [][6]float64{
		{0, 1, 1, 0, 1, 1},
		{0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, math.Inf(1)},
	}

	for _, gt := range tests {
		if _, err := NewAffine(gt); !errors.Is(err, ErrProjection) {
			t.Errorf("NewAffine(%v) err = %v; want ErrProjection", gt, err)
		}
	}

	if _, err := NewAffineProjector(Affine{}, nil); err == nil {
		t.Errorf("expected error for zero geotransform")
	}
}

func TestAffineInvert(t *testing.T) {

	a, err := NewAffine([6]float64{440720, 60, 2, 3751320, 1.5, -60})

	if err != nil {
		t.Fatalf("NewAffine failed: %v", err)
	}

	x, y := a.Apply(123.5, 456.25)

	px, py, err := a.Invert(x, y)

	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}

	if !near(px, 123.5, 1e-6) || !near(py, 456.25, 1e-6) {
		t.Errorf("Invert(Apply(123.5, 456.25)) = %f,%f", px, py)
	}
}

func TestProjectBox(t *testing.T) {

	p, err := NewAffineProjector(Affine{100, 0.5, 0, 50, 0, -0.5}, Identity{})

	if err != nil {
		t.Fatalf("NewAffineProjector failed: %v", err)
	}

	q, err := p.ProjectBox(result.BoxRect{Left: 0, Top: 0, Right: 10, Bottom: 20})

	if err != nil {
		t.Fatalf("ProjectBox failed: %v", err)
	}

	want := [5]Position{
		{Lon: 100, Lat: 50},
		{Lon: 105, Lat: 50},
		{Lon: 105, Lat: 40},
		{Lon: 100, Lat: 40},
		{Lon: 100, Lat: 50},
	}

	if q.Ring != want {
		t.Errorf("ring = %v; want %v", q.Ring, want)
	}

	if q.Centroid != (Position{Lon: 102.5, Lat: 45}) {
		t.Errorf("centroid = %v; want {102.5 45}", q.Centroid)
	}
}

type nanReprojector struct{}

func (nanReprojector) Reproject(x, y float64) (float64, float64, error) {
	return math.NaN(), y, nil
}

func TestProjectBoxNonFinite(t *testing.T) {

	p, err := NewAffineProjector(Affine{0, 1, 0, 0, 0, -1}, nanReprojector{})

	if err != nil {
		t.Fatalf("NewAffineProjector failed: %v", err)
	}

	if _, err := p.ProjectBox(result.BoxRect{Right: 1, Bottom: 1}); !errors.Is(err, ErrProjection) {
		t.Errorf("err = %v; want ErrProjection", err)
	}
}

func TestProjectBoxMercator(t *testing.T) {

	x, y, err := MercatorForward(-0.1276, 51.5072)

	if err != nil {
		t.Fatalf("MercatorForward failed: %v", err)
	}

	p, err := NewAffineProjector(Affine{x, 0.1, 0, y, 0, -0.1}, Mercator{})

	if err != nil {
		t.Fatalf("NewAffineProjector failed: %v", err)
	}

	q, err := p.ProjectBox(result.BoxRect{Left: 0, Top: 0, Right: 100, Bottom: 100})

	if err != nil {
		t.Fatalf("ProjectBox failed: %v", err)
	}

	if !near(q.Ring[0].Lon, -0.1276, degTolerance) || !near(q.Ring[0].Lat, 51.5072, degTolerance) {
		t.Errorf("top left corner = %v; want -0.1276,51.5072", q.Ring[0])
	}

	if q.Ring[2].Lat >= q.Ring[0].Lat || q.Ring[2].Lon <= q.Ring[0].Lon {
		t.Errorf("bottom right corner %v is not south east of %v", q.Ring[2], q.Ring[0])
	}
}

func TestNewReprojector(t *testing.T) {

	rp, err := NewReprojector("epsg:4326")

	if _, ok := rp.(Identity); err != nil || !ok {
		t.Errorf("EPSG:4326 gave %T, %v; want Identity", rp, err)
	}

	rp, err = NewReprojector("EPSG:3857")

	if _, ok := rp.(Mercator); err != nil || !ok {
		t.Errorf("EPSG:3857 gave %T, %v; want Mercator", rp, err)
	}

	if _, err := NewReprojector(""); !errors.Is(err, ErrProjection) {
		t.Errorf("empty CRS err = %v; want ErrProjection", err)
	}
}

func TestPROJReprojector(t *testing.T) {

	// UTM zone 33N central meridian on the equator
	rp, err := NewPROJReprojector("EPSG:32633")

	if err != nil {
		t.Fatalf("NewPROJReprojector failed: %v", err)
	}

	defer rp.Close()

	lon, lat, err := rp.Reproject(500000, 0)

	if err != nil {
		t.Fatalf("Reproject failed: %v", err)
	}

	if !near(lon, 15, 1e-7) || !near(lat, 0, 1e-7) {
		t.Errorf("got %f,%f; want 15,0", lon, lat)
	}

	if _, err := NewPROJReprojector("EPSG:not-a-code"); !errors.Is(err, ErrProjection) {
		t.Errorf("invalid CRS err = %v; want ErrProjection", err)
	}
}
