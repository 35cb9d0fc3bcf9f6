package result

import (
	"image"
)

// BoxRect are the dimensions of the bounding box of a detected object in
// pixel coordinates.  Left/Top are inclusive, Right/Bottom exclusive.
type BoxRect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the width of the box
func (b BoxRect) Width() float64 {
	return b.Right - b.Left
}

// Height returns the height of the box
func (b BoxRect) Height() float64 {
	return b.Bottom - b.Top
}

// Area returns the area of the box, zero for degenerate boxes
func (b BoxRect) Area() float64 {
	if b.Right <= b.Left || b.Bottom <= b.Top {
		return 0
	}

	return (b.Right - b.Left) * (b.Bottom - b.Top)
}

// Center returns the center point of the box
func (b BoxRect) Center() (float64, float64) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

// Valid reports if the box has a positive width and height
func (b BoxRect) Valid() bool {
	return b.Left < b.Right && b.Top < b.Bottom
}

// Offset returns the box translated by dx, dy
func (b BoxRect) Offset(dx, dy float64) BoxRect {
	return BoxRect{
		Left:   b.Left + dx,
		Top:    b.Top + dy,
		Right:  b.Right + dx,
		Bottom: b.Bottom + dy,
	}
}

// Contains reports if other lies entirely within b, edges included
func (b BoxRect) Contains(other BoxRect) bool {
	return other.Left >= b.Left && other.Top >= b.Top &&
		other.Right <= b.Right && other.Bottom <= b.Bottom
}

// Rect returns the integer pixel rectangle covering the box, truncating the
// coordinates
func (b BoxRect) Rect() image.Rectangle {
	return image.Rect(int(b.Left), int(b.Top), int(b.Right), int(b.Bottom))
}

// DetectResult defines the attributes of a single object detected by a
// Detector against one image or tile
type DetectResult struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int
	// Box are the bounding box dimensions of the object location, local to
	// the image passed to the Detector
	Box BoxRect
	// Probability is the confidence score of the object detected
	Probability float32
}

// Candidate is a detection translated into the global pixel space of the
// source raster or image, awaiting deduplication and projection
type Candidate struct {
	// ID is a unique ID assigned to the candidate in order of discovery
	ID int64
	// Class of the detected object
	Class int
	// Label is the class name taken from the Model's label table
	Label string
	// Box is the bounding box in global pixel coordinates
	Box BoxRect
	// Probability is the confidence score of the object detected
	Probability float32
	// TileX is the x offset of the tile the detection was made in
	TileX int
	// TileY is the y offset of the tile the detection was made in
	TileY int
	// Crop is a copy of the detected objects pixels.  It is owned by the
	// Candidate and never shares memory with the tile it was cut from
	Crop *image.NRGBA
}

// NewCandidate translates a tile local detection at tile offset (x, y) into
// a global Candidate
func NewCandidate(id int64, det DetectResult, label string, x, y int) Candidate {
	return Candidate{
		ID:          id,
		Class:       det.Class,
		Label:       label,
		Box:         det.Box.Offset(float64(x), float64(y)),
		Probability: det.Probability,
		TileX:       x,
		TileY:       y,
	}
}
