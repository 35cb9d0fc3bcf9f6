// Package raster provides windowed pixel access to georeferenced images
package raster

import (
	"image"
	"strings"

	"github.com/pkg/errors"

	"github.com/swdee/go-geodetect/geo"
)

// ErrUnavailable is returned when a raster cannot be opened or has no
// usable georeferencing
var ErrUnavailable = errors.New("raster unavailable")

// Source is a georeferenced raster that can be read a window at a time
type Source interface {
	// Width of the raster in pixels
	Width() int
	// Height of the raster in pixels
	Height() int
	// GeoTransform maps pixel positions to the rasters CRS
	GeoTransform() geo.Affine
	// CRS is the coordinate reference system of the GeoTransform as an
	// authority code or WKT
	CRS() string
	// ReadWindow returns the first three channels of the window as an opaque
	// image with bounds starting at (0,0), extra channels are dropped
	ReadWindow(x, y, w, h int) (*image.NRGBA, error)
	// Close releases the raster
	Close() error
}

// Driver selects the Source implementation used by Open
type Driver string

const (
	// DriverGDAL reads any raster format GDAL supports
	DriverGDAL Driver = "gdal"
	// DriverWorldFile reads a plain image with an ESRI world file sidecar
	DriverWorldFile Driver = "worldfile"
)

// Open returns a Source for path using the given driver.  The crs overrides
// the rasters own CRS and is required by the world file driver.
func Open(path string, driver Driver, crs string) (Source, error) {

	switch Driver(strings.ToLower(string(driver))) {
	case DriverGDAL, "":
		return OpenGDAL(path, crs)
	case DriverWorldFile:
		return OpenWorldFile(path, crs)
	}

	return nil, errors.Wrapf(ErrUnavailable, "unknown raster driver %q", driver)
}

// checkWindow validates a window against the raster size
func checkWindow(s Source, x, y, w, h int) error {

	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > s.Width() || y+h > s.Height() {
		return errors.Errorf("window %d,%d %dx%d outside raster %dx%d",
			x, y, w, h, s.Width(), s.Height())
	}

	return nil
}

// copyRGB copies the window of img into a new opaque NRGBA image
func copyRGB(img image.Image, window image.Rectangle) *image.NRGBA {

	dst := image.NewNRGBA(image.Rect(0, 0, window.Dx(), window.Dy()))

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < window.Dy(); y++ {
			si := src.PixOffset(window.Min.X, window.Min.Y+y)
			di := dst.PixOffset(0, y)

			for x := 0; x < window.Dx(); x++ {
				dst.Pix[di] = src.Pix[si]
				dst.Pix[di+1] = src.Pix[si+1]
				dst.Pix[di+2] = src.Pix[si+2]
				dst.Pix[di+3] = 0xff
				si += 4
				di += 4
			}
		}

		return dst
	}

	for y := 0; y < window.Dy(); y++ {
		for x := 0; x < window.Dx(); x++ {
			r, g, b, a := img.At(window.Min.X+x, window.Min.Y+y).RGBA()

			// undo alpha premultiplication
			if a != 0 && a != 0xffff {
				r = r * 0xffff / a
				g = g * 0xffff / a
				b = b * 0xffff / a
			}

			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8(r >> 8)
			dst.Pix[i+1] = uint8(g >> 8)
			dst.Pix[i+2] = uint8(b >> 8)
			dst.Pix[i+3] = 0xff
		}
	}

	return dst
}
