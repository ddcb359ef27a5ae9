package cache

import (
	"fmt"
	"math"

	"github.com/gruppe-adler/demcache/internal/geo"
)

// Key identifies a cached artifact by the integer-degree bounds of a
// buffered bounding box: latMin_lonMin_latMax_lonMax.
//
// Lower bounds are floored, upper bounds truncated toward zero. Any two
// boxes that round to the same integers share one artifact, so sub-degree
// differences never create a new entry.
type Key string

// KeyFor expands box by buffer degrees on every side and derives its key.
func KeyFor(box geo.BoundingBox, buffer float64) Key {
	b := box.Expand(buffer)
	return Key(fmt.Sprintf("%d_%d_%d_%d",
		int(math.Floor(b.LatMin)),
		int(math.Floor(b.LonMin)),
		int(math.Trunc(b.LatMax)),
		int(math.Trunc(b.LonMax)),
	))
}

func (k Key) String() string { return string(k) }

// Cover returns the whole-degree area that contains every box mapping to k.
// Fetching the tiles of the cover instead of the requested box makes an
// artifact valid for all requests that share its key.
func (k Key) Cover() (geo.BoundingBox, error) {
	var latMin, lonMin, latMax, lonMax int
	if _, err := fmt.Sscanf(string(k), "%d_%d_%d_%d", &latMin, &lonMin, &latMax, &lonMax); err != nil {
		return geo.BoundingBox{}, fmt.Errorf("malformed cache key %q: %w", k, err)
	}
	return geo.BoundingBox{
		LatMin: float64(latMin),
		LatMax: float64(upperEdge(latMax)),
		LonMin: float64(lonMin),
		LonMax: float64(upperEdge(lonMax)),
	}, nil
}

// upperEdge inverts the truncation of an upper bound: a truncated t >= 0
// came from [t, t+1), a negative one from (t-1, t].
func upperEdge(t int) int {
	if t >= 0 {
		return t + 1
	}
	return t
}
