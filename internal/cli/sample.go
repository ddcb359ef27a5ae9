package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gruppe-adler/demcache/internal/export"
	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/sampler"
)

// Sample generates the DEM for the given points and prints their elevations.
// With -random N it samples N random points inside the points' bounding box
// instead.
func Sample(flagSet *flag.FlagSet) {
	var timer time.Time
	start := time.Now()

	configPtr := configFlag(flagSet)
	latsPtr := flagSet.String("lats", "", "Comma separated latitudes")
	lonsPtr := flagSet.String("lons", "", "Comma separated longitudes")
	bufferPtr := flagSet.Float64("buffer", 0, "Buffer in degrees around the points (0: configured default)")
	inputPtr := flagSet.String("in", "", "Sample this cached DEM (.raw) instead of generating one")
	randomPtr := flagSet.Int("random", 0, "Sample N random points inside the bounding box of -lats/-lons")
	seedPtr := flagSet.Int64("seed", 0, "Seed for -random (0: time based)")
	formatPtr := flagSet.String("format", "text", "Output format: text, csv, geojson or kml")
	outputPtr := flagSet.String("out", "", "Output file (default: stdout)")
	failFastPtr := flagSet.Bool("fail-fast", false, "Stop at the first point that can't be sampled")

	flagSet.Parse(os.Args[2:])

	lats, lons, err := parsePoints(*latsPtr, *lonsPtr)
	if err != nil {
		fmt.Println(err)
		flagSet.PrintDefaults()
		os.Exit(1)
	}
	format, err := export.ParseFormat(*formatPtr)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	_, p := mustPipeline(ctx, *configPtr)

	path := *inputPtr
	if path == "" {
		timer = time.Now()
		fmt.Fprintln(os.Stderr, "▶️  Generating DEM")
		path, err = p.Generate(ctx, lats, lons, *bufferPtr)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Fprintln(os.Stderr, "✔️  Generated DEM in", time.Since(timer).String())
	}

	if *randomPtr > 0 {
		box, err := geo.FromPoints(lats, lons)
		if err != nil {
			log.Fatal(err)
		}
		seed := *seedPtr
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		lats, lons = RandomPoints(box, *randomPtr, rand.New(rand.NewSource(seed)))
	}

	timer = time.Now()
	fmt.Fprintf(os.Stderr, "▶️  Sampling %d points\n", len(lats))
	samples, err := p.SampleWith(lats, lons, path, sampler.Options{FailFast: *failFastPtr})
	if samples == nil {
		log.Fatal(err)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "⚠️ ", err)
	}
	fmt.Fprintln(os.Stderr, "✔️  Sampled in", time.Since(timer).String())

	out := os.Stdout
	if *outputPtr != "" {
		if out, err = os.Create(*outputPtr); err != nil {
			log.Fatal(err)
		}
		defer out.Close()
	}
	if err := export.Write(out, format, samples); err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(os.Stderr, "\n    🎉  Finished in %s\n", time.Since(start).String())
}
