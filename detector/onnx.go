package detector

import (
	"image"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/swdee/go-geodetect/postprocess"
	"github.com/swdee/go-geodetect/postprocess/result"
	"github.com/swdee/go-geodetect/preprocess"
)

// ONNXParams defines the configuration of an ONNX YOLOv8 detector
type ONNXParams struct {
	// InputSize is the width and height of the models square input tensor
	InputSize int
	// Classes is the number of classes the Model was trained with, zero
	// reads it from the shape of the output tensor
	Classes int
	// NMSThreshold is the IoU above which overlapping boxes of the same class
	// within a single tile are suppressed
	NMSThreshold float32
	// MaxObjects caps the number of detections returned per tile
	MaxObjects int
}

// DefaultONNXParams returns parameters for an Ultralytics export at the
// default 640x640 input size
// - NMS Threshold: 0.45
// - Maximum Object Number: 300
func DefaultONNXParams() ONNXParams {
	return ONNXParams{
		InputSize:    640,
		NMSThreshold: 0.45,
		MaxObjects:   300,
	}
}

// ONNX is a Detector running a YOLOv8/YOLO11 ONNX export through the OpenCV
// DNN module
type ONNX struct {
	params  ONNXParams
	net     gocv.Net
	resizer *preprocess.Resizer
	resized gocv.Mat
	post    *postprocess.YOLOv8
}

// NewONNX loads the ONNX model file
func NewONNX(modelFile string, p ONNXParams) (*ONNX, error) {

	if p.InputSize <= 0 {
		return nil, errors.Errorf("invalid input size %d", p.InputSize)
	}

	if _, err := os.Stat(modelFile); err != nil {
		return nil, errors.Wrap(err, "model file unavailable")
	}

	net := gocv.ReadNetFromONNX(modelFile)

	if net.Empty() {
		return nil, errors.Errorf("failed to read ONNX model %s", modelFile)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "failed to set backend")
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "failed to set target")
	}

	postParams := postprocess.YOLOv8DefaultParams(p.Classes)
	postParams.NMSThreshold = p.NMSThreshold
	postParams.MaxObjectNumber = p.MaxObjects

	d := &ONNX{
		params:  p,
		net:     net,
		resizer: preprocess.NewResizer(p.InputSize, p.InputSize, p.InputSize, p.InputSize),
		resized: gocv.NewMat(),
		post:    postprocess.NewYOLOv8(postParams),
	}

	return d, nil
}

// NewONNXLoader returns a Loader creating ONNX detectors with the given
// parameters
func NewONNXLoader(p ONNXParams) Loader {
	return func(modelRef string) (Detector, error) {
		return NewONNX(modelRef, p)
	}
}

// Detect runs the model on img
func (d *ONNX) Detect(img image.Image, confThreshold float32) ([]result.DetectResult, error) {

	b := img.Bounds()

	if b.Empty() {
		return nil, errors.New("empty image")
	}

	// ImageToMatRGB returns a BGR ordered Mat
	src, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return nil, errors.Wrap(err, "failed to convert image")
	}

	defer src.Close()

	d.resizer.SetSource(src.Cols(), src.Rows())
	d.resizer.LetterBoxResize(src, &d.resized, preprocess.LetterboxColor)

	blob := gocv.BlobFromImage(d.resized, 1.0/255.0,
		image.Pt(d.params.InputSize, d.params.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)

	defer blob.Close()

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	if d.params.Classes <= 0 {
		if shape := out.Size(); len(shape) == 3 {
			d.post.Params.ObjectClassNum = shape[1] - 4
		}
	}

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, errors.Wrap(err, "failed to read output tensor")
	}

	return d.post.DetectObjects(data, d.resizer, confThreshold)
}

// Close releases the network and buffers
func (d *ONNX) Close() error {
	d.resizer.Close()
	d.resized.Close()
	return d.net.Close()
}
