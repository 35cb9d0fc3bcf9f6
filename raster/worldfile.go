package raster

import (
	"bufio"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"github.com/swdee/go-geodetect/geo"
)

// WorldFile is a Source for a plain image georeferenced by an ESRI world
// file sidecar.  The whole image is decoded into memory.
type WorldFile struct {
	*Memory
}

// OpenWorldFile decodes the image at path and reads its world file.  World
// files carry no CRS so it must be given.
func OpenWorldFile(path string, crs string) (*WorldFile, error) {

	if strings.TrimSpace(crs) == "" {
		return nil, errors.Wrapf(ErrUnavailable, "%s: a CRS is required for world file rasters", path)
	}

	img, err := decodeImage(path)

	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%s: %v", path, err)
	}

	wld, err := findWorldFile(path)

	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%s: %v", path, err)
	}

	gt, err := ReadWorldFile(wld)

	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%s: %v", wld, err)
	}

	return &WorldFile{Memory: NewMemory(img, gt, crs)}, nil
}

// decodeImage reads TIFF files with the x/image decoder and everything else
// through imaging
func decodeImage(path string) (image.Image, error) {

	ext := strings.ToLower(filepath.Ext(path))

	if ext != ".tif" && ext != ".tiff" {
		return imaging.Open(path)
	}

	f, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer f.Close()

	return tiff.Decode(bufio.NewReader(f))
}

// findWorldFile returns the sidecar for path, trying the short form (.tfw),
// the long form (.tifw) and .wld in that order
func findWorldFile(path string) (string, error) {

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	var candidates []string

	if len(ext) >= 3 {
		candidates = append(candidates, base+ext[:2]+ext[len(ext)-1:]+"w")
	}

	candidates = append(candidates, path+"w", base+".wld")

	for _, c := range candidates {
		cext := filepath.Ext(c)

		for _, name := range []string{c, strings.TrimSuffix(c, cext) + strings.ToUpper(cext)} {
			if _, err := os.Stat(name); err == nil {
				return name, nil
			}
		}
	}

	return "", errors.New("no world file found")
}

// ReadWorldFile parses the six lines of a world file into a geotransform.
// World files reference the center of the top left pixel whilst GDAL
// geotransforms reference its corner.
func ReadWorldFile(path string) (geo.Affine, error) {

	f, err := os.Open(path)

	if err != nil {
		return geo.Affine{}, err
	}

	defer f.Close()

	var v []float64
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		n, err := strconv.ParseFloat(line, 64)

		if err != nil {
			return geo.Affine{}, errors.Wrapf(err, "line %d", len(v)+1)
		}

		v = append(v, n)
	}

	if err := scanner.Err(); err != nil {
		return geo.Affine{}, err
	}

	if len(v) != 6 {
		return geo.Affine{}, errors.Errorf("expected 6 values, got %d", len(v))
	}

	// A D B E C F
	a, d, b, e, c, f0 := v[0], v[1], v[2], v[3], v[4], v[5]

	return geo.NewAffine([6]float64{c - a/2 - b/2, a, b, f0 - d/2 - e/2, d, e})
}
