package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment positions a label horizontally against its box
type Alignment int

const (
	Left Alignment = iota + 1
	Center
	Right
)

// Font holds the Hershey font settings and padding used for box labels
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	Alignment Alignment
}

// DefaultFont returns label settings sized for images around 800 pixels wide
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// FontForWidth scales DefaultFont so labels stay legible on drone
// photographs several thousand pixels wide
func FontForWidth(width int) Font {

	f := DefaultFont()
	factor := max(1, width/800)

	f.Scale *= float64(factor)
	f.Thickness *= factor
	f.LeftPad *= factor
	f.RightPad *= factor
	f.TopPad *= factor
	f.BottomPad *= factor

	return f
}
