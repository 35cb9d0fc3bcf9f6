package preprocess

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropSnapshot copies the pixels of box out of img.  The returned image owns
// its pixel buffer, so img may be reused or released once this returns.  The
// box is clipped to the image bounds, nil is returned when nothing remains.
func CropSnapshot(img image.Image, box image.Rectangle) *image.NRGBA {

	box = box.Add(img.Bounds().Min).Intersect(img.Bounds())

	if box.Empty() {
		return nil
	}

	return imaging.Crop(img, box)
}

// Thumbnail encodes img as a JPEG and returns it base64 encoded.  When maxSize
// is positive the image is first shrunk so its longest side is at most maxSize
// pixels.
func Thumbnail(img image.Image, maxSize int, quality int) (string, error) {

	if img == nil || img.Bounds().Empty() {
		return "", fmt.Errorf("empty image")
	}

	b := img.Bounds()

	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))

	if err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// IsBlank reports if every opaque pixel of img has the same color, or img
// has no opaque pixels at all, which is what nodata regions of an
// orthomosaic decode to
func IsBlank(img image.Image) bool {

	if n, ok := img.(*image.NRGBA); ok {
		return isBlankNRGBA(n)
	}

	b := img.Bounds()
	found := false

	var r0, g0, b0 uint32

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()

			if a == 0 {
				continue
			}

			if !found {
				r0, g0, b0 = r, g, bl
				found = true
				continue
			}

			if r != r0 || g != g0 || bl != b0 {
				return false
			}
		}
	}

	return true
}

// isBlankNRGBA is IsBlank reading the pixel buffer directly
func isBlankNRGBA(img *image.NRGBA) bool {

	b := img.Bounds()
	found := false

	var ref [3]uint8

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]

		for i := 0; i < len(row); i += 4 {
			if row[i+3] == 0 {
				continue
			}

			if !found {
				ref = [3]uint8{row[i], row[i+1], row[i+2]}
				found = true
				continue
			}

			if row[i] != ref[0] || row[i+1] != ref[1] || row[i+2] != ref[2] {
				return false
			}
		}
	}

	return true
}
