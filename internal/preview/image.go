package preview

import (
	"image"
	"image/color"

	"github.com/gruppe-adler/demcache/internal/dem"
)

// Image renders g as a grayscale image stretched between its lowest (black)
// and highest (white) valid sample. Voids are transparent.
func Image(g *dem.Grid) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Cols, g.Rows))

	min, max, ok := g.MinMax()
	if !ok {
		return img
	}
	span := float64(max - min)

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v := g.At(col, row)
			if g.IsNoData(v) {
				continue
			}

			var gray uint8
			if span > 0 {
				gray = uint8(float64(v-min)/span*255 + 0.5)
			}
			img.SetNRGBA(col, row, color.NRGBA{R: gray, G: gray, B: gray, A: 255})
		}
	}

	return img
}
