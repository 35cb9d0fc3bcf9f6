package geo

// Position is a geographic coordinate in decimal degrees
type Position struct {
	Lon float64
	Lat float64
}

// Quad is the footprint of a pixel box on the ground
type Quad struct {
	// Ring holds the corners top-left, top-right, bottom-right, bottom-left
	// and the first corner again to close it
	Ring [5]Position
	// Centroid is the mean of the four corners
	Centroid Position
}
