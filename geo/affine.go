package geo

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/swdee/go-geodetect/postprocess/result"
)

// Affine is a raster geotransform in GDAL order
// [originX, pixelWidth, rowRotation, originY, columnRotation, pixelHeight]
// mapping pixel (col, row) to the rasters CRS
type Affine [6]float64

// NewAffine returns the geotransform after checking it is invertible
func NewAffine(gt [6]float64) (Affine, error) {

	a := Affine(gt)

	if err := a.Validate(); err != nil {
		return Affine{}, err
	}

	return a, nil
}

// matrix returns the linear part of the transform
func (a Affine) matrix() *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		a[1], a[2],
		a[4], a[5],
	})
}

// Validate returns ErrProjection when the transform is singular or not finite
func (a Affine) Validate() error {

	if !finite(a[:]...) {
		return errors.Wrap(ErrProjection, "non finite geotransform")
	}

	if mat.Det(a.matrix()) == 0 {
		return errors.Wrapf(ErrProjection, "singular geotransform %v", [6]float64(a))
	}

	return nil
}

// Apply maps the pixel position to CRS coordinates
func (a Affine) Apply(px, py float64) (float64, float64) {
	return a[0] + px*a[1] + py*a[2], a[3] + px*a[4] + py*a[5]
}

// Invert maps CRS coordinates back to a pixel position
func (a Affine) Invert(x, y float64) (float64, float64, error) {

	var inv mat.Dense

	if err := inv.Inverse(a.matrix()); err != nil {
		return 0, 0, errors.Wrap(ErrProjection, err.Error())
	}

	dx, dy := x-a[0], y-a[3]

	return inv.At(0, 0)*dx + inv.At(0, 1)*dy, inv.At(1, 0)*dx + inv.At(1, 1)*dy, nil
}

// AffineProjector maps raster pixel boxes to geographic quadrilaterals
type AffineProjector struct {
	Transform Affine
	Reproject Reprojector
}

// NewAffineProjector validates the transform and returns a projector using
// rp to reach EPSG:4326
func NewAffineProjector(gt Affine, rp Reprojector) (*AffineProjector, error) {

	if err := gt.Validate(); err != nil {
		return nil, err
	}

	if rp == nil {
		rp = Identity{}
	}

	return &AffineProjector{Transform: gt, Reproject: rp}, nil
}

// ProjectBox projects the four corners of box into lon/lat
func (p *AffineProjector) ProjectBox(box result.BoxRect) (Quad, error) {

	corners := [4][2]float64{
		{box.Left, box.Top},
		{box.Right, box.Top},
		{box.Right, box.Bottom},
		{box.Left, box.Bottom},
	}

	var q Quad
	lons := make([]float64, 4)
	lats := make([]float64, 4)

	for i, c := range corners {
		x, y := p.Transform.Apply(c[0], c[1])

		lon, lat, err := p.Reproject.Reproject(x, y)

		if err != nil {
			return Quad{}, err
		}

		if !finite(lon, lat) {
			return Quad{}, errors.Wrapf(ErrProjection, "corner %d reprojected to %f,%f", i, lon, lat)
		}

		q.Ring[i] = Position{Lon: lon, Lat: lat}
		lons[i] = lon
		lats[i] = lat
	}

	q.Ring[4] = q.Ring[0]
	q.Centroid = Position{Lon: stat.Mean(lons, nil), Lat: stat.Mean(lats, nil)}

	return q, nil
}
