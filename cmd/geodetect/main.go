// Package main is the geodetect command, detecting objects in aerial imagery
// and writing them out as GeoJSON
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/swdee/go-geodetect"
	"github.com/swdee/go-geodetect/detector"
	"github.com/swdee/go-geodetect/postprocess"
)

const (
	// shared flags
	flagConfig    = "config"
	flagDebug     = "debug"
	flagOutput    = "output"
	flagModel     = "model"
	flagLabels    = "labels"
	flagWorkers   = "workers"
	flagConf      = "conf"
	flagInputSize = "input-size"
	flagNMS       = "nms"

	// tiled flags
	flagTileSize      = "tile-size"
	flagOverlap       = "overlap"
	flagIoU           = "iou"
	flagCRS           = "crs"
	flagDriver        = "driver"
	flagNoThumbnails  = "no-thumbnails"
	flagThumbnailSize = "thumbnail-size"
	flagKeepBlank     = "keep-blank"

	// images flags
	flagAltitude    = "altitude"
	flagYaw         = "yaw"
	flagFocal       = "focal"
	flagSensorWidth = "sensor-width"
	flagPoses       = "poses"
	flagPreviewDir  = "preview-dir"
	flagGeodesic    = "geodesic"
)

// newLoader creates the detector sessions, replaced in tests
var newLoader = detector.NewONNXLoader

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {

	tiledFlags := append(sharedFlags(),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  flagTileSize,
			Value: geodetect.DefaultScanParams().TileSize,
			Usage: "width and height of the tiles the raster is cut into",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagOverlap,
			Value: geodetect.DefaultScanParams().Overlap,
			Usage: "ratio of the tile size shared by neighbouring tiles, [0, 1)",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagIoU,
			Value: postprocess.DefaultIoUThreshold,
			Usage: "IoU above which overlapping detections are merged",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  flagCRS,
			Usage: "CRS of the raster, overrides the one stored in the file",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  flagDriver,
			Value: "gdal",
			Usage: "raster reader, gdal or worldfile",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  flagNoThumbnails,
			Usage: "do not embed a JPEG of each detection",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  flagThumbnailSize,
			Usage: "maximum side of embedded thumbnails, 0 for full size",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  flagKeepBlank,
			Usage: "run detection on tiles holding only nodata",
		}),
	)

	obliqueDefaults := geodetect.DefaultObliqueParams().Defaults

	imagesFlags := append(sharedFlags(),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagAltitude,
			Value: obliqueDefaults.AltM,
			Usage: "height above ground in meters when the image has none",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagYaw,
			Value: obliqueDefaults.YawDeg,
			Usage: "camera heading in degrees when the image has none",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagFocal,
			Value: obliqueDefaults.FocalMM,
			Usage: "lens focal length in mm when the image has none",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagSensorWidth,
			Value: obliqueDefaults.SensorWidthMM,
			Usage: "camera sensor width in mm",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  flagPoses,
			Usage: "JSON file of camera poses keyed by filename, instead of EXIF",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  flagPreviewDir,
			Usage: "directory to write images with their detections drawn on",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  flagGeodesic,
			Usage: "apply ground offsets along the great circle instead of web mercator",
		}),
	)

	return &cli.App{
		Name:  "geodetect",
		Usage: "detect objects in aerial imagery and localize them as GeoJSON",
		Commands: []*cli.Command{
			{
				Name:      "tiled",
				Usage:     "detect objects in a georeferenced orthomosaic",
				ArgsUsage: "<raster>",
				Flags:     tiledFlags,
				Before:    altsrc.InitInputSourceWithContext(tiledFlags, loadConfig),
				Action:    tiledAction,
			},
			{
				Name:      "images",
				Usage:     "localize objects in drone photographs from their camera pose",
				ArgsUsage: "<image> [image...]",
				Flags:     imagesFlags,
				Before:    altsrc.InitInputSourceWithContext(imagesFlags, loadConfig),
				Action:    imagesAction,
			},
		},
	}
}

// loadConfig reads the YAML config file when one is given
func loadConfig(c *cli.Context) (altsrc.InputSourceContext, error) {

	if c.String(flagConfig) == "" {
		return &altsrc.MapInputSource{}, nil
	}

	return altsrc.NewYamlSourceFromFlagFunc(flagConfig)(c)
}

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  flagConfig,
			Usage: "YAML file to read flag values from",
		},
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "log at debug level",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   "file to write the GeoJSON to, stdout when empty",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    flagModel,
			Aliases: []string{"m"},
			Usage:   "YOLOv8 ONNX model file, required",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    flagLabels,
			Aliases: []string{"l"},
			Usage:   "text file of the models class names, one per line",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  flagWorkers,
			Value: 1,
			Usage: "number of model sessions run in parallel",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagConf,
			Value: float64(geodetect.DefaultScanParams().ConfThreshold),
			Usage: "minimum detection confidence",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  flagInputSize,
			Value: detector.DefaultONNXParams().InputSize,
			Usage: "square input size of the model",
		}),
		altsrc.NewFloat64Flag(&cli.Float64Flag{
			Name:  flagNMS,
			Value: float64(detector.DefaultONNXParams().NMSThreshold),
			Usage: "IoU threshold of the models own per tile NMS",
		}),
	}
}

// newLogger returns a console logger writing to stderr so it never mixes
// with GeoJSON written to stdout
func newLogger(debug bool) (*zap.SugaredLogger, error) {

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := cfg.Build()

	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
