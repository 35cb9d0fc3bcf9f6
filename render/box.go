package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/swdee/go-geodetect/postprocess/result"
)

// boxLabel is a precalculated label drawn after all boxes
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// DetectionBoxes renders the bounding boxes and labels of the candidates.
// Boxes are in the pixel space of img.
func DetectionBoxes(img *gocv.Mat, cands []result.Candidate, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(cands))

	for _, c := range cands {

		useClr := ClassColor(c.Class)
		rect := c.Box.Rect()

		// draw rectangle around detected object
		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := fmt.Sprintf("%s %.2f", c.Label, c.Probability)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (rect.Min.X + rect.Max.X) / 2

		case Right:
			centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// labels of boxes at the top edge go inside the box
		top := rect.Min.Y

		if top-textSize.Y-font.TopPad-font.BottomPad < 0 {
			top += textSize.Y + font.TopPad + font.BottomPad
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
				top-textSize.Y-font.TopPad-font.BottomPad,
				centerX+textSize.X/2+font.RightPad, top),
			clr:     useClr,
			text:    text,
			textPos: image.Pt(centerX-textSize.X/2, top-font.BottomPad),
		})
	}

	// labels are the top most layer so no box line crosses them
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Preview draws the candidates onto a copy of img and writes it to file,
// the format follows the file extension
func Preview(file string, img image.Image, cands []result.Candidate) error {

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return errors.Wrap(err, "failed to convert image")
	}

	defer mat.Close()

	// thicker lines on large photographs
	thickness := max(2, mat.Cols()/800)

	DetectionBoxes(&mat, cands, FontForWidth(mat.Cols()), thickness)

	if !gocv.IMWrite(file, mat) {
		return errors.Errorf("failed to write preview %s", file)
	}

	return nil
}
