package dem

import (
	"fmt"
	"math"
)

// Geotransform is the affine mapping between pixel indices and coordinates,
// in the usual 6-coefficient order: origin X, pixel width, row rotation,
// origin Y, column rotation, pixel height.
type Geotransform [6]float64

// NewGeotransform returns a north-up transform without rotation.
func NewGeotransform(originX, pixelWidth, originY, pixelHeight float64) Geotransform {
	return Geotransform{originX, pixelWidth, 0, originY, 0, pixelHeight}
}

// OriginX is the longitude of the upper-left corner.
func (g Geotransform) OriginX() float64 { return g[0] }

// PixelWidth is the pixel size along X in degrees.
func (g Geotransform) PixelWidth() float64 { return g[1] }

// OriginY is the latitude of the upper-left corner.
func (g Geotransform) OriginY() float64 { return g[3] }

// PixelHeight is the pixel size along Y in degrees, negative for north-up grids.
func (g Geotransform) PixelHeight() float64 { return g[5] }

// Rotated reports whether any rotation term is set.
func (g Geotransform) Rotated() bool { return g[2] != 0 || g[4] != 0 }

// Pixel maps a coordinate to fractional pixel indices through the inverse
// transform. The results still need flooring.
func (g Geotransform) Pixel(lat, lon float64) (x, y float64) {
	return (lon - g[0]) / g[1], (lat - g[3]) / g[5]
}

// Coord returns the coordinate of the center of pixel (x, y).
func (g Geotransform) Coord(x, y int) (lat, lon float64) {
	return g[3] + (float64(y)+0.5)*g[5], g[0] + (float64(x)+0.5)*g[1]
}

// Grid is a single band elevation raster held in memory.
type Grid struct {
	Cols, Rows int
	Transform  Geotransform
	NoData     float64
	// Data holds Rows*Cols samples, row-major, first row is the northernmost.
	Data []float32
}

// NewGrid allocates a grid filled with the no-data value.
func NewGrid(cols, rows int, transform Geotransform, noData float64) *Grid {
	data := make([]float32, cols*rows)
	for i := range data {
		data[i] = float32(noData)
	}
	return &Grid{Cols: cols, Rows: rows, Transform: transform, NoData: noData, Data: data}
}

// At returns the value at (x, y). It will panic if x or y are out of bounds.
func (g *Grid) At(x, y int) float32 {
	return g.Data[y*g.Cols+x]
}

// Set sets the value at (x, y).
func (g *Grid) Set(x, y int, v float32) {
	g.Data[y*g.Cols+x] = v
}

// IsNoData reports whether v is the grid's void marker.
func (g *Grid) IsNoData(v float32) bool {
	return IsNoData(v, g.NoData)
}

// Extent returns west, south, east, north edges of the grid.
func (g *Grid) Extent() (west, south, east, north float64) {
	x0, x1 := g.Transform[0], g.Transform[0]+float64(g.Cols)*g.Transform[1]
	y0, y1 := g.Transform[3], g.Transform[3]+float64(g.Rows)*g.Transform[5]
	return math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)
}

// MinMax returns the smallest and largest valid value. ok is false if every
// cell is void.
func (g *Grid) MinMax() (min, max float32, ok bool) {
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

func (g *Grid) validate() error {
	if g.Cols <= 0 || g.Rows <= 0 {
		return fmt.Errorf("invalid grid size %dx%d", g.Cols, g.Rows)
	}
	if len(g.Data) != g.Cols*g.Rows {
		return fmt.Errorf("grid has %d samples, want %d", len(g.Data), g.Cols*g.Rows)
	}
	if g.Transform[1] == 0 || g.Transform[5] == 0 {
		return fmt.Errorf("grid has zero pixel size")
	}
	return nil
}

// IsNoData compares v against a no-data marker. NaN is always void.
func IsNoData(v float32, noData float64) bool {
	if math.IsNaN(float64(v)) {
		return true
	}
	return v == float32(noData)
}
