// Package metadata reads the camera pose of oblique photographs
package metadata

import (
	"github.com/pkg/errors"

	"github.com/swdee/go-geodetect/geo"
)

// ErrMissingGeoreference is returned when an image has no GPS position
var ErrMissingGeoreference = errors.New("missing georeference")

// Reader extracts the camera pose recorded for an image
type Reader interface {
	Read(path string) (Pose, error)
}

// Pose is the camera pose as recorded in the image metadata, any field may
// be missing
type Pose struct {
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	AltM          *float64 `json:"alt,omitempty"`
	YawDeg        *float64 `json:"yaw,omitempty"`
	FocalMM       *float64 `json:"focal,omitempty"`
	SensorWidthMM *float64 `json:"sensor_width,omitempty"`
}

// Defaults are the values used for pose fields missing from the metadata
type Defaults struct {
	AltM          float64
	YawDeg        float64
	FocalMM       float64
	SensorWidthMM float64
}

// DefaultDefaults returns the defaults for a 1/2.3" sensor flown at 50m
func DefaultDefaults() Defaults {
	return Defaults{
		AltM:          geo.DefaultAltitudeM,
		YawDeg:        geo.DefaultYawDeg,
		FocalMM:       geo.DefaultFocalMM,
		SensorWidthMM: geo.DefaultSensorWidthMM,
	}
}

// Camera resolves missing fields from d.  Images without a latitude and
// longitude cannot be localized and return ErrMissingGeoreference.
func (p Pose) Camera(d Defaults) (geo.CameraPose, error) {

	if p.Lat == nil || p.Lon == nil {
		return geo.CameraPose{}, ErrMissingGeoreference
	}

	return geo.CameraPose{
		Lat:           *p.Lat,
		Lon:           *p.Lon,
		AltM:          valueOr(p.AltM, d.AltM),
		YawDeg:        valueOr(p.YawDeg, d.YawDeg),
		FocalMM:       valueOr(p.FocalMM, d.FocalMM),
		SensorWidthMM: valueOr(p.SensorWidthMM, d.SensorWidthMM),
	}, nil
}

func valueOr(v *float64, def float64) float64 {

	if v == nil {
		return def
	}

	return *v
}

// Float returns a pointer to v for building a Pose
func Float(v float64) *float64 {
	return &v
}
