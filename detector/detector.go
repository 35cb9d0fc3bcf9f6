// Package detector defines the object detection contract used by the
// geodetect pipelines and provides an ONNX backed YOLOv8 implementation.
package detector

import (
	"image"

	"github.com/swdee/go-geodetect/postprocess/result"
)

// Detector runs an object detection model over a single image.  Boxes are
// returned in the pixel space of img, relative to img.Bounds().Min.  A
// Detector is not safe for concurrent use, pool them instead.
type Detector interface {
	// Detect returns every object scoring at least confThreshold
	Detect(img image.Image, confThreshold float32) ([]result.DetectResult, error)
	// Close releases the model
	Close() error
}

// Loader opens a model, modelRef is usually a file path
type Loader func(modelRef string) (Detector, error)

// Func adapts a plain function to the Detector interface
type Func func(img image.Image, confThreshold float32) ([]result.DetectResult, error)

// Detect calls f
func (f Func) Detect(img image.Image, confThreshold float32) ([]result.DetectResult, error) {
	return f(img, confThreshold)
}

// Close is a no-op
func (f Func) Close() error {
	return nil
}
