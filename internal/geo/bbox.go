package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// DefaultBuffer is the buffer in degrees added to every side of a point set.
const DefaultBuffer = 0.1

// BoundingBox is a latitude/longitude box in degrees.
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// FromPoints returns the smallest box containing all given points.
func FromPoints(lats, lons []float64) (BoundingBox, error) {
	if len(lats) == 0 {
		return BoundingBox{}, errors.New("no points given")
	}
	if len(lats) != len(lons) {
		return BoundingBox{}, fmt.Errorf("got %d latitudes but %d longitudes", len(lats), len(lons))
	}

	mp := make(orb.MultiPoint, len(lats))
	for i := range lats {
		mp[i] = orb.Point{lons[i], lats[i]}
	}

	return FromBound(mp.Bound()), nil
}

// FromBound converts an orb.Bound (X = longitude, Y = latitude).
func FromBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		LatMin: b.Min.Lat(),
		LatMax: b.Max.Lat(),
		LonMin: b.Min.Lon(),
		LonMax: b.Max.Lon(),
	}
}

// Expand grows the box by d degrees on every side.
func (b BoundingBox) Expand(d float64) BoundingBox {
	return BoundingBox{
		LatMin: b.LatMin - d,
		LatMax: b.LatMax + d,
		LonMin: b.LonMin - d,
		LonMax: b.LonMax + d,
	}
}

// Bound returns the box as an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.LonMin, b.LatMin},
		Max: orb.Point{b.LonMax, b.LatMax},
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return b.Bound().Contains(orb.Point{lon, lat})
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.4f,%.4f]x[%.4f,%.4f]", b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}
