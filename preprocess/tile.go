package preprocess

import (
	"fmt"
	"image"
	"math"
)

// Tile defines a window of the source raster to run inference on
type Tile struct {
	// Index is the position of the tile in row major scan order
	Index int
	// X is the coordinate of the tiles left edge in the raster
	X int
	// Y is the coordinate of the tiles top edge in the raster
	Y int
	// Width of the tile, equal to the tile size except at the raster edge
	Width int
	// Height of the tile, equal to the tile size except at the raster edge
	Height int
}

// Rect returns the tile window as a rectangle in raster coordinates
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// TileScheduler partitions a raster into a grid of overlapping tiles.  Tile
// origins are placed every Step() pixels from (0,0) and tiles at the right
// and bottom edges are clipped to the raster rather than padded.
type TileScheduler struct {
	// width of the raster
	width int
	// height of the raster
	height int
	// tileSize is the maximum width and height of each tile
	tileSize int
	// step is the distance between tile origins
	step int
}

// NewTileScheduler returns a TileScheduler for a raster of the given
// dimensions.  Overlap is a ratio from 0.0 up to but excluding 1.0 of the tile
// size to share between neighbouring tiles, a value of 0.2 gives a stride of
// 80% of tileSize.
func NewTileScheduler(width, height, tileSize int, overlap float64) (*TileScheduler, error) {

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster dimensions %dx%d", width, height)
	}

	if tileSize <= 0 {
		return nil, fmt.Errorf("invalid tile size %d", tileSize)
	}

	if overlap < 0 || overlap >= 1 || math.IsNaN(overlap) {
		return nil, fmt.Errorf("overlap %f must be in the range [0, 1)", overlap)
	}

	step := int(math.Floor(float64(tileSize) * (1 - overlap)))

	if step < 1 {
		return nil, fmt.Errorf("overlap %f leaves no stride for tile size %d",
			overlap, tileSize)
	}

	s := &TileScheduler{
		width:    width,
		height:   height,
		tileSize: tileSize,
		step:     step,
	}

	return s, nil
}

// Step returns the stride between tile origins
func (s *TileScheduler) Step() int {
	return s.step
}

// TileSize returns the maximum tile width and height
func (s *TileScheduler) TileSize() int {
	return s.tileSize
}

// columns returns the number of tile origins along an axis of length n
func (s *TileScheduler) columns(n int) int {
	return (n + s.step - 1) / s.step
}

// Len returns the number of tiles covering the raster
func (s *TileScheduler) Len() int {
	return s.columns(s.width) * s.columns(s.height)
}

// Iter returns a new iterator positioned before the first tile.  Each call
// starts a fresh pass over the grid.
func (s *TileScheduler) Iter() *TileIterator {
	return &TileIterator{s: s}
}

// Tiles returns every tile of the grid in row major order
func (s *TileScheduler) Tiles() []Tile {

	tiles := make([]Tile, 0, s.Len())
	it := s.Iter()

	for t, ok := it.Next(); ok; t, ok = it.Next() {
		tiles = append(tiles, t)
	}

	return tiles
}

// TileIterator lazily walks the tile grid of a TileScheduler
type TileIterator struct {
	s     *TileScheduler
	x     int
	y     int
	index int
}

// Next returns the next tile and true, or false once the grid is exhausted
func (it *TileIterator) Next() (Tile, bool) {

	if it.y >= it.s.height {
		return Tile{}, false
	}

	t := Tile{
		Index:  it.index,
		X:      it.x,
		Y:      it.y,
		Width:  min(it.s.tileSize, it.s.width-it.x),
		Height: min(it.s.tileSize, it.s.height-it.y),
	}

	it.index++
	it.x += it.s.step

	if it.x >= it.s.width {
		it.x = 0
		it.y += it.s.step
	}

	return t, true
}
