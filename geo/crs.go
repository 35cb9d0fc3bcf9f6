package geo

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/twpayne/go-proj/v10"
)

// Reprojector converts coordinates in a rasters CRS to lon/lat on EPSG:4326
type Reprojector interface {
	Reproject(x, y float64) (lon, lat float64, err error)
}

// Identity is the Reprojector for rasters already in EPSG:4326
type Identity struct{}

// Reproject returns x as longitude and y as latitude
func (Identity) Reproject(x, y float64) (float64, float64, error) {
	return x, y, nil
}

// PROJReprojector reprojects any CRS PROJ understands to EPSG:4326 with
// longitude first axis order
type PROJReprojector struct {
	mu sync.Mutex
	pj *proj.PJ
}

// NewPROJReprojector builds a transformation from srcCRS, which may be an
// authority code such as "EPSG:32633", a PROJ string or WKT
func NewPROJReprojector(srcCRS string) (*PROJReprojector, error) {

	pj, err := proj.NewCRSToCRS(srcCRS, "EPSG:4326", nil)

	if err != nil {
		return nil, errors.Wrapf(ErrProjection, "failed to create transformation from %q: %v", srcCRS, err)
	}

	// EPSG:4326 is lat/lon ordered, normalize to lon/lat
	norm, err := pj.NormalizeForVisualization()

	if err != nil {
		pj.Destroy()
		return nil, errors.Wrapf(ErrProjection, "failed to normalize axis order: %v", err)
	}

	pj.Destroy()

	return &PROJReprojector{pj: norm}, nil
}

// Reproject converts x/y in the source CRS to lon/lat
func (r *PROJReprojector) Reproject(x, y float64) (float64, float64, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.pj.Forward(proj.NewCoord(x, y, 0, 0))

	if err != nil {
		return 0, 0, errors.Wrapf(ErrProjection, "reproject %f,%f: %v", x, y, err)
	}

	return c.X(), c.Y(), nil
}

// Close frees the PROJ transformation
func (r *PROJReprojector) Close() error {

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pj != nil {
		r.pj.Destroy()
		r.pj = nil
	}

	return nil
}

// NewReprojector returns the cheapest Reprojector for crs.  Geographic WGS84
// and Web Mercator codes are handled in closed form, anything else goes
// through PROJ.
func NewReprojector(crs string) (Reprojector, error) {

	switch strings.ToUpper(strings.TrimSpace(crs)) {
	case "":
		return nil, errors.Wrap(ErrProjection, "raster has no CRS")
	case "EPSG:4326", "OGC:CRS84", "CRS84":
		return Identity{}, nil
	case "EPSG:3857", "EPSG:900913":
		return Mercator{}, nil
	}

	return NewPROJReprojector(crs)
}
