package geodetect

import (
	"context"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swdee/go-geodetect/feature"
	"github.com/swdee/go-geodetect/geo"
	"github.com/swdee/go-geodetect/postprocess"
	"github.com/swdee/go-geodetect/postprocess/result"
	"github.com/swdee/go-geodetect/preprocess"
	"github.com/swdee/go-geodetect/raster"
)

// Scanner detects objects across a large georeferenced raster by running
// the detector over overlapping tiles, merging the per tile results and
// removing the duplicates the overlap produces
type Scanner struct {
	pool   *Pool
	labels Labels
	params ScanParams
	log    *zap.SugaredLogger
}

// ScanResult holds the outcome of a Scan
type ScanResult struct {
	// Tiles holds one result per tile in row major order
	Tiles []TileResult
	// Candidates are the detections that survived deduplication, in
	// descending confidence order
	Candidates []result.Candidate
	// Collection has one Polygon feature per localized candidate
	Collection *geojson.FeatureCollection
	// Unprojected counts candidates dropped because their footprint could
	// not be projected
	Unprojected int
}

// NewScanner returns a Scanner running detections on the pool
func NewScanner(pool *Pool, labels Labels, p ScanParams, opts ...Option) (*Scanner, error) {

	if pool == nil {
		return nil, errors.New("nil detector pool")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	o := newOptions(opts)

	return &Scanner{
		pool:   pool,
		labels: labels,
		params: p,
		log:    o.log,
	}, nil
}

// Scan detects and localizes objects in src.  Tiles are processed
// concurrently, one per pooled detector.  A tile that fails to read or run is
// recorded as skipped and the scan continues.  If ctx is cancelled no partial
// result is returned.
func (s *Scanner) Scan(ctx context.Context, src raster.Source) (*ScanResult, error) {

	rp, err := geo.NewReprojector(src.CRS())

	if err != nil {
		return nil, errors.Wrapf(ErrRasterUnavailable, "unusable CRS: %v", err)
	}

	if c, ok := rp.(interface{ Close() error }); ok {
		defer c.Close()
	}

	projector, err := geo.NewAffineProjector(src.GeoTransform(), rp)

	if err != nil {
		return nil, errors.Wrapf(ErrRasterUnavailable, "unusable geotransform: %v", err)
	}

	sched, err := preprocess.NewTileScheduler(src.Width(), src.Height(),
		s.params.TileSize, s.params.Overlap)

	if err != nil {
		return nil, errors.Wrapf(ErrRasterUnavailable, "failed to tile raster: %v", err)
	}

	s.log.Infow("scanning raster", "width", src.Width(), "height", src.Height(),
		"tiles", sched.Len(), "step", sched.Step(), "workers", s.pool.Size())

	// each tile writes only to its own slot
	tiles := make([]TileResult, sched.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pool.Size())

	it := sched.Iter()

	for tile, ok := it.Next(); ok; tile, ok = it.Next() {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {

			if err := gctx.Err(); err != nil {
				return err
			}

			tiles[tile.Index] = s.scanTile(src, tile)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &ScanResult{Tiles: tiles}
	ids := result.NewIDGenerator()

	var all []result.Candidate

	// merge in tile order so IDs and tie breaks are deterministic
	for _, tr := range tiles {
		if tr.Skipped() {
			s.log.Warnw("tile skipped", "tile", tr.Tile.Index, "x", tr.Tile.X, "y", tr.Tile.Y, "error", tr.Err)
			continue
		}

		for _, c := range tr.Candidates {
			c.ID = ids.GetNext()
			all = append(all, c)
		}
	}

	res.Candidates = postprocess.HybridFilter(all, s.params.IoUThreshold)

	s.log.Infow("deduplicated candidates", "before", len(all), "after", len(res.Candidates))

	asm := feature.NewAssembler()

	for _, c := range res.Candidates {
		quad, err := projector.ProjectBox(c.Box)

		if err != nil {
			s.log.Warnw("candidate dropped", "id", c.ID, "label", c.Label, "error", err)
			res.Unprojected++
			continue
		}

		asm.AddQuad(quad, c.Label, c.Probability, s.thumbnail(c))
	}

	res.Collection = asm.Collection(s.labels.Map())

	return res, nil
}

// scanTile reads and runs detection on a single tile
func (s *Scanner) scanTile(src raster.Source, tile preprocess.Tile) TileResult {

	tr := TileResult{Tile: tile}

	img, err := src.ReadWindow(tile.X, tile.Y, tile.Width, tile.Height)

	if err != nil {
		tr.Err = errors.Wrap(ErrDecode, err.Error())
		return tr
	}

	if s.params.SkipBlank && preprocess.IsBlank(img) {
		s.log.Debugw("blank tile", "tile", tile.Index)
		tr.Blank = true
		return tr
	}

	d := s.pool.Get()

	if d == nil {
		tr.Err = errors.New("detector pool closed")
		return tr
	}

	dets, err := d.Detect(img, s.params.ConfThreshold)
	s.pool.Return(d)

	if err != nil {
		tr.Err = errors.Wrap(err, "inference failed")
		return tr
	}

	tr.Candidates = make([]result.Candidate, 0, len(dets))

	for _, det := range dets {
		c := result.NewCandidate(0, det, s.labels.For(det.Class), tile.X, tile.Y)

		if s.params.Thumbnails {
			// copy the pixels now, img is dropped when the tile is done
			c.Crop = preprocess.CropSnapshot(img, det.Box.Rect())
		}

		tr.Candidates = append(tr.Candidates, c)
	}

	s.log.Debugw("tile scanned", "tile", tile.Index, "detections", len(dets))

	return tr
}

// thumbnail encodes the candidates crop, empty when there is none
func (s *Scanner) thumbnail(c result.Candidate) string {

	if !s.params.Thumbnails || c.Crop == nil {
		return ""
	}

	enc, err := preprocess.Thumbnail(c.Crop, s.params.ThumbnailSize, s.params.ThumbnailQuality)

	if err != nil {
		s.log.Debugw("thumbnail failed", "id", c.ID, "error", err)
		return ""
	}

	return enc
}
