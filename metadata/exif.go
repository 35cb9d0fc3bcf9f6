package metadata

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF reads the pose from the EXIF GPS and camera tags of a JPEG or TIFF.
// The GPS altitude is taken as the height above ground.
type EXIF struct{}

// Read returns the pose recorded in path, an image without EXIF data gives
// an empty Pose
func (EXIF) Read(path string) (Pose, error) {

	f, err := os.Open(path)

	if err != nil {
		return Pose{}, errors.Wrap(err, "failed to open image")
	}

	defer f.Close()

	x, err := exif.Decode(f)

	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return Pose{}, nil
	}

	var p Pose

	if lat, lon, err := x.LatLong(); err == nil {
		p.Lat = Float(lat)
		p.Lon = Float(lon)
	}

	p.AltM = rational(x, exif.GPSAltitude)
	p.YawDeg = rational(x, exif.GPSImgDirection)
	p.FocalMM = rational(x, exif.FocalLength)

	return p, nil
}

// rational returns the first value of a rational tag or nil when the tag is
// absent or malformed
func rational(x *exif.Exif, name exif.FieldName) *float64 {

	tag, err := x.Get(name)

	if err != nil {
		return nil
	}

	num, den, err := tag.Rat2(0)

	if err != nil {
		// some cameras write integer tags
		v, ierr := tag.Int64(0)

		if ierr != nil {
			return nil
		}

		return Float(float64(v))
	}

	if den == 0 {
		return nil
	}

	return Float(float64(num) / float64(den))
}
