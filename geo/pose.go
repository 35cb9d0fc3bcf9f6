// Package geo converts pixel positions into geographic coordinates, either
// through a pinhole camera model for oblique photographs or through a raster
// geotransform followed by a CRS reprojection for orthomosaics.
package geo

import (
	"github.com/pkg/errors"
)

// ErrProjection is returned when a pixel cannot be mapped to a valid
// geographic position
var ErrProjection = errors.New("projection failed")

// camera defaults used when the image metadata does not carry a value
const (
	DefaultAltitudeM     = 50.0
	DefaultYawDeg        = 0.0
	DefaultFocalMM       = 24.0
	DefaultSensorWidthMM = 6.17
)

// CameraPose is the position and orientation of the camera when a photograph
// was taken
type CameraPose struct {
	// Lat and Lon of the camera in decimal degrees
	Lat float64
	Lon float64
	// AltM is the height of the camera above the ground in meters
	AltM float64
	// YawDeg is the heading of the camera, clockwise from north
	YawDeg float64
	// FocalMM is the lens focal length in millimeters
	FocalMM float64
	// SensorWidthMM is the physical width of the image sensor
	SensorWidthMM float64
}

// DefaultCameraPose returns a pose at the given position with the default
// altitude, yaw, focal length and sensor width
func DefaultCameraPose(lat, lon float64) CameraPose {
	return CameraPose{
		Lat:           lat,
		Lon:           lon,
		AltM:          DefaultAltitudeM,
		YawDeg:        DefaultYawDeg,
		FocalMM:       DefaultFocalMM,
		SensorWidthMM: DefaultSensorWidthMM,
	}
}
