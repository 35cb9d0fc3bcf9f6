package geo

import (
	"math"

	"github.com/pkg/errors"
)

// LocalOffsetter moves a geographic position by a small metric offset
type LocalOffsetter interface {
	Offset(lat, lon, east, north float64) (float64, float64, error)
}

// CameraProjector maps pixels of a nadir looking photograph onto the ground
// with a pinhole camera model.  The ground is assumed flat and the camera
// pitch and roll negligible.
type CameraProjector struct {
	// Offset applies the ground displacement, Mercator when nil
	Offset LocalOffsetter
}

// NewCameraProjector returns a projector using the Web Mercator offsetter
func NewCameraProjector() *CameraProjector {
	return &CameraProjector{Offset: Mercator{}}
}

// Project returns the lat/lon seen at pixel (px, py) of a w x h image taken
// from pose
func (c *CameraProjector) Project(px, py float64, w, h int, pose CameraPose) (float64, float64, error) {

	if w <= 0 || h <= 0 {
		return 0, 0, errors.Wrapf(ErrProjection, "invalid image size %dx%d", w, h)
	}

	if pose.FocalMM <= 0 || pose.SensorWidthMM <= 0 {
		return 0, 0, errors.Wrapf(ErrProjection, "invalid focal length %f or sensor width %f",
			pose.FocalMM, pose.SensorWidthMM)
	}

	if !finite(px, py, pose.Lat, pose.Lon, pose.AltM, pose.YawDeg) {
		return 0, 0, errors.Wrap(ErrProjection, "non finite input")
	}

	// focal length in pixels, square pixels assumed
	fx := pose.FocalMM / pose.SensorWidthMM * float64(w)
	cx := float64(w) / 2
	cy := float64(h) / 2

	x := (px - cx) / fx
	y := (py - cy) / fx

	// image down is ground south
	east := x * pose.AltM
	north := -y * pose.AltM

	yaw := pose.YawDeg * math.Pi / 180
	sin, cos := math.Sincos(yaw)

	e := east*cos - north*sin
	n := east*sin + north*cos

	off := c.Offset

	if off == nil {
		off = Mercator{}
	}

	return off.Offset(pose.Lat, pose.Lon, e, n)
}
