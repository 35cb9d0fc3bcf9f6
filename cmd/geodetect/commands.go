package main

import (
	"io"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/swdee/go-geodetect"
	"github.com/swdee/go-geodetect/detector"
	"github.com/swdee/go-geodetect/feature"
	"github.com/swdee/go-geodetect/geo"
	"github.com/swdee/go-geodetect/metadata"
	"github.com/swdee/go-geodetect/raster"
)

// tiledAction detects objects across a georeferenced raster
func tiledAction(c *cli.Context) error {

	if c.NArg() != 1 {
		return errors.New("expected exactly one raster path")
	}

	log, err := newLogger(c.Bool(flagDebug))

	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}

	defer log.Sync()

	model, err := modelFile(c)

	if err != nil {
		return err
	}

	labels, err := loadLabels(c)

	if err != nil {
		return err
	}

	p := geodetect.DefaultScanParams()
	p.TileSize = c.Int(flagTileSize)
	p.Overlap = c.Float64(flagOverlap)
	p.ConfThreshold = float32(c.Float64(flagConf))
	p.IoUThreshold = c.Float64(flagIoU)
	p.Thumbnails = !c.Bool(flagNoThumbnails)
	p.ThumbnailSize = c.Int(flagThumbnailSize)
	p.SkipBlank = !c.Bool(flagKeepBlank)

	if err := p.Validate(); err != nil {
		return err
	}

	src, err := raster.Open(c.Args().First(), raster.Driver(c.String(flagDriver)), c.String(flagCRS))

	if err != nil {
		return err
	}

	defer src.Close()

	pool, err := geodetect.NewPool(c.Int(flagWorkers), model, newLoader(onnxParams(c)))

	if err != nil {
		return err
	}

	defer pool.Close()

	scanner, err := geodetect.NewScanner(pool, labels, p, geodetect.WithLogger(log))

	if err != nil {
		return err
	}

	log.Infow("opened raster", "path", c.Args().First(), "width", src.Width(),
		"height", src.Height(), "crs", src.CRS(), "tileSize", p.TileSize, "overlap", p.Overlap)

	res, err := scanner.Scan(c.Context, src)

	if err != nil {
		return err
	}

	log.Infow("scan complete", "tiles", len(res.Tiles), "features", len(res.Collection.Features),
		"unprojected", res.Unprojected)

	return writeOutput(c.String(flagOutput), res.Collection)
}

// imagesAction localizes objects in drone photographs
func imagesAction(c *cli.Context) error {

	if c.NArg() == 0 {
		return errors.New("expected at least one image path")
	}

	log, err := newLogger(c.Bool(flagDebug))

	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}

	defer log.Sync()

	model, err := modelFile(c)

	if err != nil {
		return err
	}

	labels, err := loadLabels(c)

	if err != nil {
		return err
	}

	var meta metadata.Reader = metadata.EXIF{}

	if file := c.String(flagPoses); file != "" {
		static, err := metadata.LoadStatic(file)

		if err != nil {
			return err
		}

		meta = static
	}

	p := geodetect.DefaultObliqueParams()
	p.ConfThreshold = float32(c.Float64(flagConf))
	p.PreviewDir = c.String(flagPreviewDir)
	p.Workers = c.Int(flagWorkers)
	p.Defaults = metadata.Defaults{
		AltM:          c.Float64(flagAltitude),
		YawDeg:        c.Float64(flagYaw),
		FocalMM:       c.Float64(flagFocal),
		SensorWidthMM: c.Float64(flagSensorWidth),
	}

	if p.PreviewDir != "" {
		if err := os.MkdirAll(p.PreviewDir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create preview directory")
		}
	}

	pool, err := geodetect.NewPool(max(1, p.Workers), model, newLoader(onnxParams(c)))

	if err != nil {
		// downstream consumers always get a valid document
		empty := feature.NewAssembler().Collection(nil)
		return multierr.Append(err, writeOutput(c.String(flagOutput), empty))
	}

	defer pool.Close()

	op, err := geodetect.NewObliqueProcessor(pool, labels, meta, p, geodetect.WithLogger(log))

	if err != nil {
		return err
	}

	if c.Bool(flagGeodesic) {
		op.SetOffsetter(geo.Geodesic{})
	}

	res, err := op.Process(c.Context, c.Args().Slice())

	if err != nil {
		return err
	}

	logSkipped(log, res.Images)

	return writeOutput(c.String(flagOutput), res.Collection)
}

func logSkipped(log *zap.SugaredLogger, images []geodetect.ImageResult) {

	skipped := 0

	for _, ir := range images {
		if ir.Skipped() {
			skipped++
		}
	}

	log.Infow("images processed", "images", len(images), "skipped", skipped)
}

// modelFile returns the model flag, which may come from the config file so
// cannot be marked required on the flag itself
func modelFile(c *cli.Context) (string, error) {

	model := c.String(flagModel)

	if model == "" {
		return "", errors.Errorf("flag --%s is required", flagModel)
	}

	return model, nil
}

// loadLabels reads the class names when a labels file is given
func loadLabels(c *cli.Context) (geodetect.Labels, error) {

	file := c.String(flagLabels)

	if file == "" {
		return geodetect.NewLabels(nil), nil
	}

	return geodetect.LoadLabels(file)
}

func onnxParams(c *cli.Context) detector.ONNXParams {

	p := detector.DefaultONNXParams()
	p.InputSize = c.Int(flagInputSize)
	p.NMSThreshold = float32(c.Float64(flagNMS))

	return p
}

// writeOutput encodes fc to file, or stdout when file is empty
func writeOutput(file string, fc *geojson.FeatureCollection) (err error) {

	var w io.Writer = os.Stdout

	if file != "" {
		var f *os.File
		f, err = os.Create(file)

		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}

		defer multierr.AppendInvoke(&err, multierr.Close(f))
		w = f
	}

	return feature.Encode(w, fc)
}
