package geodetect

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swdee/go-geodetect/detector"
	"github.com/swdee/go-geodetect/feature"
	"github.com/swdee/go-geodetect/geo"
	"github.com/swdee/go-geodetect/metadata"
	"github.com/swdee/go-geodetect/postprocess"
	"github.com/swdee/go-geodetect/postprocess/result"
	"github.com/swdee/go-geodetect/render"
)

// ObliqueProcessor localizes the objects seen in single drone photographs
// from the camera pose recorded with each image, producing one Point feature
// per detection
type ObliqueProcessor struct {
	pool      *Pool
	labels    Labels
	meta      metadata.Reader
	params    ObliqueParams
	projector *geo.CameraProjector
	log       *zap.SugaredLogger
}

// ObliqueResult holds the outcome of Process
type ObliqueResult struct {
	// Images holds one result per input path in input order
	Images []ImageResult
	// Collection has the features of all images in input order
	Collection *geojson.FeatureCollection
}

// NewObliqueProcessor returns a processor reading poses with meta and
// projecting with the Web Mercator camera model
func NewObliqueProcessor(pool *Pool, labels Labels, meta metadata.Reader,
	p ObliqueParams, opts ...Option) (*ObliqueProcessor, error) {

	if pool == nil {
		return nil, errors.New("nil detector pool")
	}

	if meta == nil {
		meta = metadata.EXIF{}
	}

	o := newOptions(opts)

	return &ObliqueProcessor{
		pool:      pool,
		labels:    labels,
		meta:      meta,
		params:    p,
		projector: geo.NewCameraProjector(),
		log:       o.log,
	}, nil
}

// SetOffsetter replaces how ground offsets are applied to the camera
// position
func (o *ObliqueProcessor) SetOffsetter(off geo.LocalOffsetter) {
	o.projector.Offset = off
}

// Process localizes the detections of every image.  Images without a GPS
// position, or that cannot be decoded, are skipped and reported in the
// result.  If ctx is cancelled no partial result is returned.
func (o *ObliqueProcessor) Process(ctx context.Context, paths []string) (*ObliqueResult, error) {

	images := make([]ImageResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.pool.Size())

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {

			if err := gctx.Err(); err != nil {
				return err
			}

			images[i] = o.processImage(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asm := feature.NewAssembler()

	for _, ir := range images {
		if ir.Skipped() {
			o.log.Warnw("image skipped", "path", ir.Path, "error", ir.Err)
			continue
		}

		for _, f := range ir.Features {
			asm.Add(f)
		}
	}

	return &ObliqueResult{
		Images:     images,
		Collection: asm.Collection(o.labels.Map()),
	}, nil
}

// processImage runs detection on one photograph
func (o *ObliqueProcessor) processImage(path string) ImageResult {

	ir := ImageResult{Path: path}

	if _, err := os.Stat(path); err != nil {
		ir.Err = errors.Wrap(ErrDecode, err.Error())
		return ir
	}

	pose, err := o.meta.Read(path)

	if err != nil {
		ir.Err = errors.Wrap(err, "failed to read metadata")
		return ir
	}

	cam, err := pose.Camera(o.params.Defaults)

	if err != nil {
		ir.Err = err
		return ir
	}

	img, err := imaging.Open(path)

	if err != nil {
		ir.Err = errors.Wrap(ErrDecode, err.Error())
		return ir
	}

	d := o.pool.Get()

	if d == nil {
		ir.Err = errors.New("detector pool closed")
		return ir
	}

	dets, err := d.Detect(img, o.params.ConfThreshold)
	o.pool.Return(d)

	if err != nil {
		ir.Err = errors.Wrap(err, "inference failed")
		return ir
	}

	cands := make([]result.Candidate, 0, len(dets))

	for i, det := range dets {
		cands = append(cands, result.NewCandidate(int64(i+1), det, o.labels.For(det.Class), 0, 0))
	}

	cands = postprocess.ContainmentFilter(cands)

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	source := filepath.Base(path)
	asm := feature.NewAssembler()

	for _, c := range cands {
		cx, cy := c.Box.Center()

		lat, lon, err := o.projector.Project(cx, cy, w, h, cam)

		if err != nil {
			o.log.Warnw("candidate dropped", "path", path, "label", c.Label, "error", err)
			continue
		}

		asm.AddPoint(lon, lat, c.Label, c.Probability, source)
	}

	ir.Features = asm.Collection(nil).Features

	o.log.Debugw("image processed", "path", path, "detections", len(dets),
		"features", len(ir.Features))

	if o.params.PreviewDir != "" {
		o.preview(path, img, cands)
	}

	return ir
}

// preview writes a copy of the image with the kept detections drawn on
func (o *ObliqueProcessor) preview(path string, img image.Image, cands []result.Candidate) {

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_detections.jpg"
	file := filepath.Join(o.params.PreviewDir, name)

	if err := render.Preview(file, img, cands); err != nil {
		o.log.Warnw("preview failed", "path", path, "error", err)
	}
}

// Oblique loads p.Workers sessions of modelRef, processes paths and closes
// the sessions.  A model that fails to load returns an empty collection
// together with ErrModelLoad.
func Oblique(ctx context.Context, paths []string, modelRef string, load detector.Loader,
	labels Labels, meta metadata.Reader, p ObliqueParams, opts ...Option) (*geojson.FeatureCollection, error) {

	pool, err := NewPool(max(1, p.Workers), modelRef, load)

	if err != nil {
		return feature.NewAssembler().Collection(nil), err
	}

	defer pool.Close()

	op, err := NewObliqueProcessor(pool, labels, meta, p, opts...)

	if err != nil {
		return nil, err
	}

	res, err := op.Process(ctx, paths)

	if err != nil {
		return nil, err
	}

	return res.Collection, nil
}
