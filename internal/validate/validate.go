package validate

import (
	"errors"
	"fmt"
	"math"

	"github.com/gruppe-adler/demcache/internal/utils"
)

// ErrInvalidInput matches every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Points validates that lats and lons form a non-empty set of coordinates
func Points(lats, lons []float64) error {
	if len(lats) == 0 {
		return fmt.Errorf("%w: no points given", ErrInvalidInput)
	}
	if len(lats) != len(lons) {
		return fmt.Errorf("%w: got %d latitudes and %d longitudes", ErrInvalidInput, len(lats), len(lons))
	}

	for i := range lats {
		if err := Point(lats[i], lons[i]); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}

	return nil
}

// Point validates a single coordinate
func Point(lat, lon float64) error {
	if !finite(lat) || !finite(lon) {
		return fmt.Errorf("%w: (%v, %v) is not finite", ErrInvalidInput, lat, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidInput, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidInput, lon)
	}
	return nil
}

// Buffer validates a bounding box buffer in degrees. 0 selects the default.
func Buffer(buffer float64) error {
	if !finite(buffer) || buffer < 0 {
		return fmt.Errorf("%w: buffer must be a finite number >= 0, got %v", ErrInvalidInput, buffer)
	}
	return nil
}

// ArtifactFile validates that given path is an existing file
func ArtifactFile(path string) error {
	if !utils.IsFile(path) {
		return fmt.Errorf("%s does not exists or is no file", path)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
