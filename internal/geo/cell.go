package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/paulmach/orb"
)

// Cell is a 1°x1° tile cell, identified by its south-west corner.
type Cell struct {
	Lat int
	Lon int
}

// CellAt returns the cell containing the coordinate.
func CellAt(lat, lon float64) Cell {
	return Cell{Lat: int(math.Floor(lat)), Lon: int(math.Floor(lon))}
}

// NS returns the hemisphere letter for the latitude.
func (c Cell) NS() byte {
	if c.Lat < 0 {
		return 'S'
	}
	return 'N'
}

// EW returns the hemisphere letter for the longitude.
func (c Cell) EW() byte {
	if c.Lon < 0 {
		return 'W'
	}
	return 'E'
}

// Stem returns the conventional tile name, e.g. N34W119.
func (c Cell) Stem() string {
	return fmt.Sprintf("%c%02d%c%03d", c.NS(), abs(c.Lat), c.EW(), abs(c.Lon))
}

// Bound returns the cell footprint.
func (c Cell) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(c.Lon), float64(c.Lat)},
		Max: orb.Point{float64(c.Lon + 1), float64(c.Lat + 1)},
	}
}

func (c Cell) String() string { return c.Stem() }

// Matches N34W119, n34w119.hgt, N34_00_W119_00 and Copernicus_DSM_COG_10_N34_00_W119_00_DEM.
var cellPattern = regexp.MustCompile(`(?i)([NS])(\d{1,2})(?:_00)?_?([EW])(\d{1,3})`)

// ParseCell extracts a cell from a tile name.
func ParseCell(name string) (Cell, bool) {
	m := cellPattern.FindStringSubmatch(name)
	if m == nil {
		return Cell{}, false
	}

	lat, _ := strconv.Atoi(m[2])
	lon, _ := strconv.Atoi(m[4])
	if m[1] == "S" || m[1] == "s" {
		lat = -lat
	}
	if m[3] == "W" || m[3] == "w" {
		lon = -lon
	}
	if lat < -90 || lat >= 90 || lon < -180 || lon >= 180 {
		return Cell{}, false
	}

	return Cell{Lat: lat, Lon: lon}, true
}

// CellsFor lists every cell whose footprint overlaps the box, ordered from
// south-west to north-east, row by row.
func CellsFor(b BoundingBox) []Cell {
	start := CellAt(b.LatMin, b.LonMin)
	latStart, latEnd := start.Lat, lastCell(b.LatMin, b.LatMax)
	lonStart, lonEnd := start.Lon, lastCell(b.LonMin, b.LonMax)

	bound := b.Bound()
	var cells []Cell
	for lat := latStart; lat <= latEnd; lat++ {
		for lon := lonStart; lon <= lonEnd; lon++ {
			c := Cell{Lat: lat, Lon: lon}
			if c.Bound().Intersects(bound) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// lastCell excludes the cell that only touches an integer max edge.
func lastCell(min, max float64) int {
	end := int(math.Ceil(max)) - 1
	if start := int(math.Floor(min)); end < start {
		end = start
	}
	return end
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
