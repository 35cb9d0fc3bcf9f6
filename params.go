package geodetect

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/swdee/go-geodetect/metadata"
	"github.com/swdee/go-geodetect/postprocess"
)

// ScanParams defines the parameters for detecting objects in a tiled raster
type ScanParams struct {
	// TileSize is the width and height of the tiles the raster is cut into
	TileSize int
	// Overlap is the ratio of the tile size shared between neighbouring tiles
	Overlap float64
	// ConfThreshold is the minimum confidence score for a detection to be kept
	ConfThreshold float32
	// IoUThreshold is the IoU above which overlapping candidates of the same
	// class are considered the same object
	IoUThreshold float64
	// Thumbnails attaches a JPEG of each detection to its feature
	Thumbnails bool
	// ThumbnailSize limits the longest side of thumbnails, zero keeps the
	// detection's full resolution
	ThumbnailSize int
	// ThumbnailQuality is the JPEG quality of thumbnails
	ThumbnailQuality int
	// SkipBlank skips tiles whose pixels are all the same color, such as the
	// nodata border of an orthomosaic
	SkipBlank bool
}

// DefaultScanParams returns an instance of ScanParams configured with
// default values
// - Tile Size: 1280
// - Overlap: 0
// - Confidence Threshold: 0.25
// - IoU Threshold: 0.5
// - Thumbnails: full size at JPEG quality 95
// - Skip Blank Tiles: true
func DefaultScanParams() ScanParams {
	return ScanParams{
		TileSize:         1280,
		Overlap:          0,
		ConfThreshold:    0.25,
		IoUThreshold:     postprocess.DefaultIoUThreshold,
		Thumbnails:       true,
		ThumbnailSize:    0,
		ThumbnailQuality: 95,
		SkipBlank:        true,
	}
}

// Validate checks the parameters are usable
func (p ScanParams) Validate() error {

	if p.TileSize <= 0 {
		return errors.Errorf("invalid tile size %d", p.TileSize)
	}

	if p.Overlap < 0 || p.Overlap >= 1 {
		return errors.Errorf("overlap %f must be in the range [0, 1)", p.Overlap)
	}

	if p.ConfThreshold < 0 || p.ConfThreshold > 1 {
		return errors.Errorf("confidence threshold %f must be in the range [0, 1]", p.ConfThreshold)
	}

	if p.IoUThreshold < 0 || p.IoUThreshold > 1 {
		return errors.Errorf("IoU threshold %f must be in the range [0, 1]", p.IoUThreshold)
	}

	if p.Thumbnails && (p.ThumbnailQuality < 1 || p.ThumbnailQuality > 100) {
		return errors.Errorf("invalid thumbnail quality %d", p.ThumbnailQuality)
	}

	return nil
}

// ObliqueParams defines the parameters for localizing objects in oblique
// photographs
type ObliqueParams struct {
	// ConfThreshold is the minimum confidence score for a detection to be kept
	ConfThreshold float32
	// Defaults fill in camera pose fields missing from the image metadata
	Defaults metadata.Defaults
	// PreviewDir when set receives a copy of each image with its surviving
	// detections drawn on
	PreviewDir string
	// Workers is the number of images processed at once by Oblique
	Workers int
}

// DefaultObliqueParams returns an instance of ObliqueParams configured with
// default values
// - Confidence Threshold: 0.25
// - Altitude: 50m
// - Yaw: 0
// - Focal Length: 24mm
// - Sensor Width: 6.17mm
// - Workers: 1
func DefaultObliqueParams() ObliqueParams {
	return ObliqueParams{
		ConfThreshold: 0.25,
		Defaults:      metadata.DefaultDefaults(),
		Workers:       1,
	}
}

// options shared by Scanner and ObliqueProcessor
type options struct {
	log *zap.SugaredLogger
}

// Option configures a Scanner or ObliqueProcessor
type Option func(*options)

// WithLogger sets the logger, the default discards everything
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

func newOptions(opts []Option) options {

	o := options{log: zap.NewNop().Sugar()}

	for _, opt := range opts {
		opt(&o)
	}

	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}

	return o
}
