package terrainrgb

import (
	"image"
	"image/color"
	"math"

	"github.com/gruppe-adler/demcache/internal/dem"
)

/*
	Mapbox Terrain-RGB decodes heights as

	height = -10000 + ((R * 256 * 256 + G * 256 + B) * 0.1)

	With x = R * 256^2 + G * 256^1 + B * 256^0 this solves to
	x = 10 * height + 100000
	and R, G, B are the digits of x written in base 256.
*/

// MaxX is the largest encodable value of x.
const MaxX = 1<<24 - 1

// HeightToRgb calculates rgb values from height. Heights outside the
// encodable range (-10000 m to about 1667721 m) are clamped.
func HeightToRgb(height float64) color.RGBA {
	x := int64(math.Round(10*height + 100000))
	if x < 0 {
		x = 0
	} else if x > MaxX {
		x = MaxX
	}

	return color.RGBA{
		R: uint8(x >> 16),
		G: uint8(x >> 8),
		B: uint8(x),
		A: 255,
	}
}

// RgbToHeight calculates height from given rgb values
func RgbToHeight(c color.RGBA) float64 {
	x := int64(c.R)<<16 | int64(c.G)<<8 | int64(c.B)

	return -10000.0 + float64(x)*0.1
}

// Image encodes every sample of g. Void samples become transparent.
func Image(g *dem.Grid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Cols, g.Rows))

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v := g.At(col, row)
			if g.IsNoData(v) {
				continue
			}
			img.SetRGBA(col, row, HeightToRgb(float64(v)))
		}
	}

	return img
}
