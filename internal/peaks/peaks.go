package peaks

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/gruppe-adler/demcache/internal/dem"
)

// Peak is a cell that is strictly higher than all eight neighbours.
type Peak struct {
	Lat, Lon  float64
	Elevation float64
}

// Find returns all peaks of g above minElevation, highest first. Edge cells
// and cells next to a void are never peaks.
func Find(g *dem.Grid, minElevation float64) []Peak {
	var peaks []Peak

	// for all cells (except edges)
	for row := 1; row < g.Rows-1; row++ {
		for col := 1; col < g.Cols-1; col++ {
			elevation := g.At(col, row)
			if g.IsNoData(elevation) || float64(elevation) <= minElevation {
				continue
			}

			if isPeak(g, col, row, elevation) {
				lat, lon := g.Transform.Coord(col, row)
				peaks = append(peaks, Peak{Lat: lat, Lon: lon, Elevation: float64(elevation)})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Elevation > peaks[j].Elevation
	})

	return peaks
}

func isPeak(g *dem.Grid, col, row int, elevation float32) bool {
	for compareRow := row - 1; compareRow <= row+1; compareRow++ {
		for compareCol := col - 1; compareCol <= col+1; compareCol++ {
			if compareRow == row && compareCol == col {
				continue
			}

			// a plateau is no peak
			compareElev := g.At(compareCol, compareRow)
			if g.IsNoData(compareElev) || compareElev >= elevation {
				return false
			}
		}
	}
	return true
}

// FeatureCollection converts peaks to GeoJSON points.
func FeatureCollection(peaks []Peak) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range peaks {
		feature := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
		feature.Properties["elevation"] = p.Elevation
		feature.Properties["text"] = fmt.Sprintf("%.0f", math.Round(p.Elevation))
		fc.Append(feature)
	}
	return fc
}
