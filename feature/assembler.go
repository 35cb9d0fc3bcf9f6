// Package feature assembles localized detections into a GeoJSON
// FeatureCollection
package feature

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/swdee/go-geodetect/geo"
)

// property names written on each feature
const (
	PropLabel      = "label"
	PropConfidence = "confidence"
	PropSource     = "source"
	PropImage      = "image"
	PropCentroid   = "centroid"
	// ModelClasses is the foreign member on the collection listing the class
	// names the model was trained with
	ModelClasses = "model_classes"
)

// Assembler accumulates features in insertion order.  It is not safe for
// concurrent use.
type Assembler struct {
	features []*geojson.Feature
}

// NewAssembler returns an empty Assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// AddPoint adds a Point feature for a detection localized from an oblique
// photograph
func (a *Assembler) AddPoint(lon, lat float64, label string, confidence float32, source string) *geojson.Feature {

	f := geojson.NewFeature(orb.Point{lon, lat})
	f.Properties[PropLabel] = label
	f.Properties[PropConfidence] = roundConfidence(confidence)
	f.Properties[PropSource] = source

	a.features = append(a.features, f)

	return f
}

// AddQuad adds a Polygon feature for the ground footprint of a detection in
// a georeferenced raster.  An empty thumbnail is written as null.
func (a *Assembler) AddQuad(q geo.Quad, label string, confidence float32, thumbnail string) *geojson.Feature {

	ring := make(orb.Ring, len(q.Ring))

	for i, p := range q.Ring {
		ring[i] = orb.Point{p.Lon, p.Lat}
	}

	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties[PropLabel] = label
	f.Properties[PropConfidence] = roundConfidence(confidence)
	f.Properties[PropCentroid] = []float64{q.Centroid.Lat, q.Centroid.Lon}

	if thumbnail == "" {
		f.Properties[PropImage] = nil
	} else {
		f.Properties[PropImage] = thumbnail
	}

	a.features = append(a.features, f)

	return f
}

// Add appends an already built feature
func (a *Assembler) Add(f *geojson.Feature) {
	a.features = append(a.features, f)
}

// Len returns the number of features added
func (a *Assembler) Len() int {
	return len(a.features)
}

// Collection returns the features as a FeatureCollection.  When classes is
// not empty it is included as the model_classes foreign member keyed by the
// class id.
func (a *Assembler) Collection(classes map[int]string) *geojson.FeatureCollection {

	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, a.features...)

	if len(classes) > 0 {
		mc := make(map[string]string, len(classes))

		for id, name := range classes {
			mc[strconv.Itoa(id)] = name
		}

		fc.ExtraMembers = geojson.Properties{ModelClasses: mc}
	}

	return fc
}

// Encode writes fc as a single JSON document
func Encode(w io.Writer, fc *geojson.FeatureCollection) error {

	data, err := json.Marshal(fc)

	if err != nil {
		return errors.Wrap(err, "failed to encode feature collection")
	}

	_, err = w.Write(append(data, '\n'))

	return errors.Wrap(err, "failed to write feature collection")
}

// roundConfidence keeps the float32 score readable once widened to float64
func roundConfidence(c float32) float64 {

	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(c), 'f', -1, 32), 64)

	if err != nil {
		return float64(c)
	}

	return v
}
