package raster

import (
	"image"

	"github.com/swdee/go-geodetect/geo"
)

// Memory is a Source backed by an in memory image
type Memory struct {
	img image.Image
	gt  geo.Affine
	crs string
}

// NewMemory wraps img.  Pixel (0,0) of the raster is img.Bounds().Min.
func NewMemory(img image.Image, gt geo.Affine, crs string) *Memory {
	return &Memory{img: img, gt: gt, crs: crs}
}

func (m *Memory) Width() int {
	return m.img.Bounds().Dx()
}

func (m *Memory) Height() int {
	return m.img.Bounds().Dy()
}

func (m *Memory) GeoTransform() geo.Affine {
	return m.gt
}

func (m *Memory) CRS() string {
	return m.crs
}

// ReadWindow copies the window out of the image
func (m *Memory) ReadWindow(x, y, w, h int) (*image.NRGBA, error) {

	if err := checkWindow(m, x, y, w, h); err != nil {
		return nil, err
	}

	origin := m.img.Bounds().Min

	return copyRGB(m.img, image.Rect(x, y, x+w, y+h).Add(origin)), nil
}

func (m *Memory) Close() error {
	return nil
}
