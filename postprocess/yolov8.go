package postprocess

import (
	"fmt"
	"sort"

	"github.com/swdee/go-geodetect/postprocess/result"
)

// YOLOv8 defines the struct for post processing the raw output tensor of a
// YOLOv8/YOLO11 detection model exported to ONNX
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept within a single image
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with
	ObjectClassNum int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned per image
	MaxObjectNumber int
}

// YOLOv8DefaultParams returns an instance of YOLOv8Params configured with
// default values for a Model trained with the given number of classes:
// - NMS Threshold: 0.45
// - Maximum Object Number: 300
func YOLOv8DefaultParams(classes int) YOLOv8Params {
	return YOLOv8Params{
		NMSThreshold:    0.45,
		ObjectClassNum:  classes,
		MaxObjectNumber: 300,
	}
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor
func NewYOLOv8(p YOLOv8Params) *YOLOv8 {
	return &YOLOv8{
		Params: p,
	}
}

// Letterbox describes how the source image was scaled and padded to the
// models input size, so boxes can be mapped back onto the source image
type Letterbox interface {
	ScaleFactor() float32
	XPad() int
	YPad() int
	SrcWidth() int
	SrcHeight() int
}

// DetectObjects decodes the models output tensor of shape
// [1, 4+ObjectClassNum, N] where each of the N anchors holds the box center x,
// center y, width, height followed by one score per class.  Anchors whose best
// class score is below boxThreshold are ignored.  Boxes are returned in the
// source image coordinates.
func (y *YOLOv8) DetectObjects(output []float32, lb Letterbox,
	boxThreshold float32) ([]result.DetectResult, error) {

	rows := 4 + y.Params.ObjectClassNum

	if y.Params.ObjectClassNum <= 0 || len(output)%rows != 0 {
		return nil, fmt.Errorf("output tensor of length %d does not match %d classes",
			len(output), y.Params.ObjectClassNum)
	}

	anchors := len(output) / rows
	group := make([]result.DetectResult, 0)

	scale := float64(lb.ScaleFactor())
	xPad := float64(lb.XPad())
	yPad := float64(lb.YPad())
	srcW := float64(lb.SrcWidth())
	srcH := float64(lb.SrcHeight())

	for a := 0; a < anchors; a++ {

		maxScore := float32(-1)
		maxClassID := -1

		for c := 0; c < y.Params.ObjectClassNum; c++ {
			score := output[(4+c)*anchors+a]

			if score > maxScore {
				maxScore = score
				maxClassID = c
			}
		}

		if maxScore < boxThreshold {
			continue
		}

		cx := float64(output[a])
		cy := float64(output[anchors+a])
		w := float64(output[2*anchors+a])
		h := float64(output[3*anchors+a])

		// remove letterbox padding and scaling
		box := result.BoxRect{
			Left:   clamp((cx-w/2-xPad)/scale, 0, srcW),
			Top:    clamp((cy-h/2-yPad)/scale, 0, srcH),
			Right:  clamp((cx+w/2-xPad)/scale, 0, srcW),
			Bottom: clamp((cy+h/2-yPad)/scale, 0, srcH),
		}

		if !box.Valid() {
			continue
		}

		group = append(group, result.DetectResult{
			Class:       maxClassID,
			Box:         box,
			Probability: maxScore,
		})
	}

	return y.nms(group), nil
}

// nms runs class aware non-maximum suppression over the detections of a single
// image and caps the result at MaxObjectNumber
func (y *YOLOv8) nms(dets []result.DetectResult) []result.DetectResult {

	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Probability > dets[j].Probability
	})

	keep := make([]result.DetectResult, 0, len(dets))

	for _, det := range dets {
		if y.Params.MaxObjectNumber > 0 && len(keep) >= y.Params.MaxObjectNumber {
			break
		}

		skip := false

		for _, kept := range keep {
			if det.Class != kept.Class {
				continue
			}

			if IoU(det.Box, kept.Box) > float64(y.Params.NMSThreshold) {
				skip = true
				break
			}
		}

		if !skip {
			keep = append(keep, det)
		}
	}

	return keep
}
