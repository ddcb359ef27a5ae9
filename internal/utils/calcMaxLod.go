package utils

import (
	"image"
	"math"
)

// CalcMaxLodFromImage calculates the LOD at which the image's longer edge is
// shown at (at least) its native resolution
func CalcMaxLodFromImage(img image.Image) uint8 {
	size := img.Bounds().Dx()
	if h := img.Bounds().Dy(); h > size {
		size = h
	}

	tilesPerRowCol := math.Ceil(float64(size) / TileSize)
	if tilesPerRowCol <= 1 {
		return 0
	}

	return uint8(math.Ceil(math.Log2(tilesPerRowCol)))
}
