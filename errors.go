package geodetect

import (
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/swdee/go-geodetect/geo"
	"github.com/swdee/go-geodetect/metadata"
	"github.com/swdee/go-geodetect/postprocess/result"
	"github.com/swdee/go-geodetect/preprocess"
	"github.com/swdee/go-geodetect/raster"
)

var (
	// ErrMissingGeoreference skips an image that has no GPS position
	ErrMissingGeoreference = metadata.ErrMissingGeoreference
	// ErrDecode skips an image or tile whose pixels could not be read
	ErrDecode = errors.New("decode failed")
	// ErrModelLoad is fatal, the detection model could not be loaded
	ErrModelLoad = errors.New("model load failed")
	// ErrProjection drops a single candidate that could not be localized
	ErrProjection = geo.ErrProjection
	// ErrRasterUnavailable is fatal, the raster could not be opened or
	// georeferenced
	ErrRasterUnavailable = raster.ErrUnavailable
)

// TileResult is the outcome of running detection on one tile
type TileResult struct {
	Tile preprocess.Tile
	// Candidates found in the tile, in raster global pixel space
	Candidates []result.Candidate
	// Blank is set when the tile held only nodata and was not run
	Blank bool
	// Err is the reason the tile was skipped
	Err error
}

// Skipped reports if the tile could not be processed
func (r TileResult) Skipped() bool {
	return r.Err != nil
}

// ImageResult is the outcome of localizing detections in one oblique image
type ImageResult struct {
	Path     string
	Features []*geojson.Feature
	// Err is the reason the image was skipped
	Err error
}

// Skipped reports if the image could not be processed
func (r ImageResult) Skipped() bool {
	return r.Err != nil
}
