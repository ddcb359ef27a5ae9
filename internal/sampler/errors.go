package sampler

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds matches every OutOfBoundsError.
	ErrOutOfBounds = errors.New("point outside raster bounds")
	// ErrNoData is returned for points on a void cell.
	ErrNoData = errors.New("no elevation data at point")
)

// OutOfBoundsError is returned for points that fall outside the raster.
// Points are never clamped to the nearest edge.
type OutOfBoundsError struct {
	Lat, Lon float64
	X, Y     int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("point (%g, %g) maps to pixel (%d, %d) outside raster bounds", e.Lat, e.Lon, e.X, e.Y)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }
