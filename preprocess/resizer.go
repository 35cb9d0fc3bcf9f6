package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// LetterboxColor is the padding color Ultralytics models are trained with
var LetterboxColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Resizer scales a tile into the models square input tensor whilst keeping
// the tiles aspect ratio, padding the remainder
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width to scale to
	destWidth int
	// destHeight is the height to scale to
	destHeight int
	// tempMat holds the scaled image before padding
	tempMat gocv.Mat
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float32
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer for scaling a srcWidth x srcHeight image to
// the destWidth x destHeight input tensor size.  Close must be called to free
// the Mat it holds.
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	r.SetSource(srcWidth, srcHeight)

	return r
}

// SetSource changes the source dimensions, recalculating the scaling.  This
// lets one Resizer serve full tiles and the smaller tiles at the raster edge.
func (r *Resizer) SetSource(srcWidth, srcHeight int) {

	if srcWidth == r.srcWidth && srcHeight == r.srcHeight {
		return
	}

	r.srcWidth = srcWidth
	r.srcHeight = srcHeight
	r.preCalc()
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// preCalc the scaling factors for source and destination Mats
func (r *Resizer) preCalc() {

	r.resizeW = r.destWidth
	r.resizeH = r.destHeight

	scaleW := float32(r.destWidth) / float32(r.srcWidth)
	scaleH := float32(r.destHeight) / float32(r.srcHeight)
	r.scale = scaleH

	if scaleW < scaleH {
		r.scale = scaleW
		r.resizeH = int(float32(r.srcHeight) * r.scale)
	} else {
		r.resizeW = int(float32(r.srcWidth) * r.scale)
	}

	r.yPad = (r.destHeight - r.resizeH) / 2
	r.xPad = (r.destWidth - r.resizeW) / 2
}

// LetterBoxResize scales src into dest, centering it and filling the border
// with clr
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, clr color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationLinear)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destHeight-r.resizeH-r.yPad,
		r.xPad, r.destWidth-r.resizeW-r.xPad, gocv.BorderConstant, clr)
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}
