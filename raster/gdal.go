package raster

import (
	"image"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/pkg/errors"

	"github.com/swdee/go-geodetect/geo"
)

var registerOnce sync.Once

// GDAL is a Source reading windows of any raster format GDAL can open, such
// as GeoTIFF orthomosaics, without loading the whole file
type GDAL struct {
	// mu serializes access to the dataset handle
	mu     sync.Mutex
	ds     *godal.Dataset
	width  int
	height int
	bands  int
	gt     geo.Affine
	crs    string
}

// OpenGDAL opens the raster at path.  When crs is empty the CRS stored in
// the raster is used.
func OpenGDAL(path string, crs string) (*GDAL, error) {

	registerOnce.Do(godal.RegisterAll)

	ds, err := godal.Open(path)

	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%s: %v", path, err)
	}

	st := ds.Structure()

	if st.SizeX <= 0 || st.SizeY <= 0 || st.NBands <= 0 {
		ds.Close()
		return nil, errors.Wrapf(ErrUnavailable, "%s: empty raster", path)
	}

	raw, err := ds.GeoTransform()

	if err != nil {
		ds.Close()
		return nil, errors.Wrapf(ErrUnavailable, "%s: no geotransform: %v", path, err)
	}

	gt, err := geo.NewAffine(raw)

	if err != nil {
		ds.Close()
		return nil, errors.Wrapf(ErrUnavailable, "%s: %v", path, err)
	}

	if crs == "" {
		crs, err = datasetCRS(ds)

		if err != nil {
			ds.Close()
			return nil, errors.Wrapf(ErrUnavailable, "%s: %v", path, err)
		}
	}

	return &GDAL{
		ds:     ds,
		width:  st.SizeX,
		height: st.SizeY,
		bands:  st.NBands,
		gt:     gt,
		crs:    crs,
	}, nil
}

// datasetCRS returns the authority code of the datasets spatial reference
// when it has one, otherwise its WKT
func datasetCRS(ds *godal.Dataset) (string, error) {

	sr := ds.SpatialRef()

	if sr == nil {
		return "", errors.New("no spatial reference")
	}

	defer sr.Close()

	name, code := sr.AuthorityName(""), sr.AuthorityCode("")

	if name != "" && code != "" {
		return name + ":" + code, nil
	}

	wkt, err := sr.WKT()

	if err != nil {
		return "", err
	}

	if wkt == "" {
		return "", errors.New("no spatial reference")
	}

	return wkt, nil
}

func (g *GDAL) Width() int {
	return g.width
}

func (g *GDAL) Height() int {
	return g.height
}

func (g *GDAL) GeoTransform() geo.Affine {
	return g.gt
}

func (g *GDAL) CRS() string {
	return g.crs
}

// ReadWindow reads bands 1 to 3 of the window, a single band raster is
// returned as gray
func (g *GDAL) ReadWindow(x, y, w, h int) (*image.NRGBA, error) {

	if err := checkWindow(g, x, y, w, h); err != nil {
		return nil, err
	}

	bands := []int{0, 1, 2}

	if g.bands < 3 {
		bands = []int{0, 0, 0}
	}

	buf := make([]uint8, w*h*3)

	g.mu.Lock()
	err := g.ds.Read(x, y, buf, w, h, godal.Bands(bands...))
	g.mu.Unlock()

	if err != nil {
		return nil, errors.Wrapf(err, "failed to read window %d,%d %dx%d", x, y, w, h)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	for i, j := 0, 0; i < len(buf); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}

	return img, nil
}

// Close closes the dataset
func (g *GDAL) Close() error {

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ds == nil {
		return nil
	}

	err := g.ds.Close()
	g.ds = nil

	return err
}
