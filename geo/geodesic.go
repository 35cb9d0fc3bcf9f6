package geo

import (
	"math"

	golanggeo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
)

// Geodesic is a LocalOffsetter that moves a position along the great circle
// on a spherical earth, using the distance and bearing of the offset.  Unlike
// Mercator it does not inflate distances away from the equator.
type Geodesic struct{}

// Offset moves lat/lon by east and north meters
func (Geodesic) Offset(lat, lon, east, north float64) (float64, float64, error) {

	if !finite(lat, lon, east, north) {
		return 0, 0, errors.Wrap(ErrProjection, "non finite coordinate")
	}

	if math.Abs(lat) > 90 {
		return 0, 0, errors.Wrapf(ErrProjection, "latitude %f out of range", lat)
	}

	dist := math.Hypot(east, north)

	if dist == 0 {
		return lat, lon, nil
	}

	bearing := math.Atan2(east, north) * 180 / math.Pi

	p := golanggeo.NewPoint(lat, lon).PointAtDistanceAndBearing(dist/1000, bearing)

	return p.Lat(), p.Lng(), nil
}
