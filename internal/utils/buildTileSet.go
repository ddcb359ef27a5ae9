package utils

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"
)

// TileSize is the edge length of XYZ tiles in pixels.
const TileSize = 256

// BuildTileSet builds tiles for given LOD from given image into outputDirectory,
// laid out as <lod>/<col>/<row>.png.
func BuildTileSet(ctx context.Context, lod uint8, img image.Image, outputDirectory string) error {
	outputDirectory = filepath.Join(outputDirectory, fmt.Sprintf("%d", lod))

	tilesPerRowCol := int(math.Pow(2, float64(lod)))

	// make col directories
	for col := 0; col < tilesPerRowCol; col++ {
		dirPath := filepath.Join(outputDirectory, fmt.Sprintf("%d", col))
		if !IsDirectory(dirPath) {
			if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
				return err
			}
		}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tileWidth := width / tilesPerRowCol
	tileHeight := height / tilesPerRowCol

	// remaining pixels
	widthRemainder := width % tilesPerRowCol
	heightRemainder := height % tilesPerRowCol

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for col := 0; col < tilesPerRowCol; col++ {
		for row := 0; row < tilesPerRowCol; row++ {
			col, row := col, row
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				tilePath := filepath.Join(outputDirectory, fmt.Sprintf("%d", col), fmt.Sprintf("%d.png", row))

				// remaining pixels go to the first rows / cols
				x := tileWidth*col + min(col, widthRemainder)
				y := tileHeight*row + min(row, heightRemainder)
				w := tileWidth
				h := tileHeight
				if col < widthRemainder {
					w++
				}
				if row < heightRemainder {
					h++
				}

				p := bounds.Min.Add(image.Point{x, y})
				rect := image.Rectangle{p, p.Add(image.Point{w, h})}
				return createTile(img, rect, tilePath)
			})
		}
	}

	return g.Wait()
}

func createTile(img image.Image, rect image.Rectangle, tilePath string) error {
	// copy instead of SubImage, any image.Image will do
	sub := image.NewNRGBA(image.Rectangle{Max: rect.Size()})
	draw.Draw(sub, sub.Bounds(), img, rect.Min, draw.Src)

	// nearest neighbour keeps encoded values intact
	tile := resize.Resize(TileSize, TileSize, sub, resize.NearestNeighbor)

	out, err := os.Create(tilePath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, tile); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
