package dem

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gruppe-adler/demcache/internal/geo"
)

// HGTVoid marks missing samples in SRTM tiles.
const HGTVoid = -32768

// ParseHGT decodes an SRTM .hgt tile. HGT files carry no header, so the
// position comes from the tile name (e.g. N34W119.hgt) and the size from the
// byte count. Samples are big-endian int16, rows from north to south, and
// adjacent tiles share their edge row and column.
func ParseHGT(name string, b []byte) (*Grid, error) {
	cell, ok := geo.ParseCell(name)
	if !ok {
		return nil, fmt.Errorf("cannot derive tile position from name %q", name)
	}

	n := int(math.Sqrt(float64(len(b) / 2)))
	if n < 2 || n*n*2 != len(b) {
		return nil, fmt.Errorf("%s: %d bytes is not a square HGT tile", name, len(b))
	}

	// samples sit on the integer grid, so pixel edges are shifted by half a step
	step := 1 / float64(n-1)
	grid := &Grid{
		Cols:      n,
		Rows:      n,
		Transform: NewGeotransform(float64(cell.Lon)-step/2, step, float64(cell.Lat+1)+step/2, -step),
		NoData:    HGTVoid,
		Data:      make([]float32, n*n),
	}

	for i := range grid.Data {
		grid.Data[i] = float32(int16(binary.BigEndian.Uint16(b[2*i:])))
	}

	return grid, nil
}
