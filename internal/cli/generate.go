package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// Generate builds (or finds) the cached DEM covering the given points.
func Generate(flagSet *flag.FlagSet) {
	start := time.Now()

	configPtr := configFlag(flagSet)
	latsPtr := flagSet.String("lats", "", "Comma separated latitudes")
	lonsPtr := flagSet.String("lons", "", "Comma separated longitudes")
	bufferPtr := flagSet.Float64("buffer", 0, "Buffer in degrees around the points (0: configured default)")

	flagSet.Parse(os.Args[2:])

	lats, lons, err := parsePoints(*latsPtr, *lonsPtr)
	if err != nil {
		fmt.Println(err)
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()
	_, p := mustPipeline(ctx, *configPtr)

	fmt.Println("▶️  Generating DEM")
	path, err := p.Generate(ctx, lats, lons, *bufferPtr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  DEM file generated:", path)

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}
