package geo

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// EarthRadiusM is the WGS84 semi-major axis used by spherical Web Mercator
	EarthRadiusM = 6378137.0
	// MaxMercatorLat is the latitude at which Web Mercator becomes square
	MaxMercatorLat = 85.051129
)

// Mercator is the spherical Web Mercator projection (EPSG:3857).  It serves
// both as a LocalOffsetter, moving a position by a metric offset in the
// projected plane, and as a Reprojector for rasters in EPSG:3857.
type Mercator struct{}

// MercatorForward projects lon/lat degrees to EPSG:3857 meters
func MercatorForward(lon, lat float64) (x, y float64, err error) {

	if !finite(lon, lat) {
		return 0, 0, errors.Wrap(ErrProjection, "non finite coordinate")
	}

	if math.Abs(lat) > MaxMercatorLat {
		return 0, 0, errors.Wrapf(ErrProjection,
			"latitude %f outside web mercator limits", lat)
	}

	x = EarthRadiusM * lon * math.Pi / 180
	y = EarthRadiusM * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))

	return x, y, nil
}

// MercatorInverse converts EPSG:3857 meters back to lon/lat degrees
func MercatorInverse(x, y float64) (lon, lat float64, err error) {

	if !finite(x, y) {
		return 0, 0, errors.Wrap(ErrProjection, "non finite coordinate")
	}

	lon = x / EarthRadiusM * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/EarthRadiusM)) - math.Pi/2) * 180 / math.Pi

	return lon, lat, nil
}

// Offset moves lat/lon by east and north meters in the Mercator plane
func (Mercator) Offset(lat, lon, east, north float64) (float64, float64, error) {

	x, y, err := MercatorForward(lon, lat)

	if err != nil {
		return 0, 0, err
	}

	if !finite(east, north) {
		return 0, 0, errors.Wrap(ErrProjection, "non finite offset")
	}

	lon, lat, err = MercatorInverse(x+east, y+north)

	if err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}

// Reproject converts EPSG:3857 meters to lon/lat
func (Mercator) Reproject(x, y float64) (float64, float64, error) {
	return MercatorInverse(x, y)
}

func finite(v ...float64) bool {

	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}

	return true
}
