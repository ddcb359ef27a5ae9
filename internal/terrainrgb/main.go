package terrainrgb

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gruppe-adler/demcache/internal/dem"
	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/tilejson"
	"github.com/gruppe-adler/demcache/internal/utils"
	"github.com/gruppe-adler/demcache/internal/validate"
)

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet) {

	var timer time.Time
	start := time.Now()

	outputPtr := flagSet.String("out", "", "Path to output directory")
	inputPtr := flagSet.String("in", "", "Path to a cached DEM (.raw)")

	flagSet.Parse(os.Args[2:])

	// make sure both flags are present
	if *outputPtr == "" || *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	// make sure given output directory is a valid directory
	if !utils.IsDirectory(*outputPtr) {
		log.Fatal(errors.New("Output directory doesn't exists"))
	}

	if err := validate.ArtifactFile(*inputPtr); err != nil {
		log.Fatal(err)
	}

	// load DEM
	timer = time.Now()
	fmt.Println("▶️  Loading DEM")
	grid, err := dem.ReadArtifact(*inputPtr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded DEM in", time.Since(timer).String())

	maxLod, err := Build(context.Background(), grid, *outputPtr, strings.TrimSuffix(filepath.Base(*inputPtr), ".raw"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("ℹ️  Built up to lod", maxLod)

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// Build writes the Terrain-RGB tile pyramid of grid and its tile.json into
// outputDirectory and returns the highest LOD.
func Build(ctx context.Context, grid *dem.Grid, outputDirectory, name string) (uint8, error) {
	// calculating image
	timer := time.Now()
	fmt.Println("▶️  Calculating image from DEM")
	img := Image(grid)
	fmt.Println("✔️  Calculated image in", time.Since(timer).String())

	// calculate max LOD
	maxLod := utils.CalcMaxLodFromImage(img)
	fmt.Println("ℹ️  Calculated max lod:", maxLod)

	// build tiles
	timer = time.Now()
	fmt.Println("▶️  Building tiles")
	for lod := uint8(0); lod <= maxLod; lod++ {
		timer2 := time.Now()
		if err := utils.BuildTileSet(ctx, lod, img, outputDirectory); err != nil {
			return 0, err
		}
		fmt.Println("    ✔️  Finished tiles for LOD", lod, "in", time.Since(timer2).String())
	}
	fmt.Println("✔️  Built Terrain-RGB tiles in", time.Since(timer).String())

	// write tile.json
	timer = time.Now()
	fmt.Println("▶️  Creating tile.json")
	west, south, east, north := grid.Extent()
	bound := geo.BoundingBox{LatMin: south, LatMax: north, LonMin: west, LonMax: east}.Bound()
	tj := tilejson.New(name+" Terrain-RGB", "Mapbox Terrain-RGB tiles of the cached DEM "+name, maxLod, bound)
	tj.Encoding = "mapbox"
	if err := tilejson.Write(outputDirectory, tj); err != nil {
		return 0, err
	}
	fmt.Println("✔️  Created tile.json in", time.Since(timer).String())

	return maxLod, nil
}
