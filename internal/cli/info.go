package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gruppe-adler/demcache/internal/cache"
	"github.com/gruppe-adler/demcache/internal/manifest"
	"github.com/gruppe-adler/demcache/internal/registry"
)

// Info prints the build manifest of a cached DEM.
func Info(flagSet *flag.FlagSet) {
	configPtr := configFlag(flagSet)
	keyPtr := flagSet.String("key", "", "Cache key, e.g. 33_-119_34_-118")
	inputPtr := flagSet.String("in", "", "Path to a cached DEM (.raw)")

	flagSet.Parse(os.Args[2:])

	if (*keyPtr == "") == (*inputPtr == "") {
		fmt.Println("exactly one of -key and -in is required")
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if *inputPtr != "" {
		mustLoad(*configPtr)
		m, err := manifest.Read(*inputPtr + ".json")
		if err != nil {
			log.Fatal(err)
		}
		printManifest(m)
		return
	}

	ctx := context.Background()
	_, p := mustPipeline(ctx, *configPtr)
	key := cache.Key(*keyPtr)

	m, err := p.Manifest(key)
	if err == nil {
		printManifest(m)
		return
	}

	// the registry still knows builds whose sidecar got lost
	r, rerr := p.Artifact(ctx, key)
	if rerr != nil {
		log.Fatal(err)
	}
	printRecord(r)
}

func printRecord(r registry.Record) {
	fmt.Printf("%-12s %s\n", "Key:", r.Key)
	fmt.Printf("%-12s %s\n", "Path:", r.Path)
	fmt.Printf("%-12s %s\n", "Request:", r.Box)
	fmt.Printf("%-12s %dx%d cells\n", "Grid:", r.Cols, r.Rows)
	fmt.Printf("%-12s %d (%d missing)\n", "Tiles:", r.Tiles, r.Missing)
	fmt.Printf("%-12s %s\n", "Size:", humanize.Bytes(uint64(r.Size)))
	fmt.Printf("%-12s %s (%s)\n", "Built:", r.BuiltAt.Format("2006-01-02 15:04:05"), humanize.Time(r.BuiltAt))
	fmt.Printf("%-12s %s\n", "Build time:", r.BuildTime)
}

func printManifest(m manifest.Manifest) {
	west, south, east, north := m.Grid.Extent()

	fmt.Printf("%-12s %s\n", "Key:", m.Key)
	fmt.Printf("%-12s %s (buffer %g°)\n", "Request:", m.Box, m.Buffer)
	fmt.Printf("%-12s %dx%d cells, %.6f° per cell\n", "Grid:", m.Grid.Cols, m.Grid.Rows, m.Grid.Transform.PixelWidth())
	fmt.Printf("%-12s W %.4f S %.4f E %.4f N %.4f\n", "Extent:", west, south, east, north)
	fmt.Printf("%-12s %s\n", "Tiles:", strings.Join(m.Tiles, ", "))
	if len(m.MissingTiles) > 0 {
		fmt.Printf("%-12s %s\n", "Missing:", strings.Join(m.MissingTiles, ", "))
	}
	fmt.Printf("%-12s %s\n", "Size:", humanize.Bytes(uint64(m.Size)))
	fmt.Printf("%-12s %s (%s)\n", "Built:", m.BuiltAt.Format("2006-01-02 15:04:05"), humanize.Time(m.BuiltAt))
	fmt.Printf("%-12s %s\n", "Build time:", time.Duration(m.BuildTime))
}
