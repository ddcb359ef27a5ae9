package peaks

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gruppe-adler/demcache/internal/dem"
	"github.com/gruppe-adler/demcache/internal/validate"
)

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet) {

	var timer time.Time
	start := time.Now()

	outputPtr := flagSet.String("out", "", "Path to output GeoJSON file")
	inputPtr := flagSet.String("in", "", "Path to a cached DEM (.raw)")
	minPtr := flagSet.Float64("min", 0, "Ignore peaks at or below this elevation")
	limitPtr := flagSet.Int("limit", 0, "Only keep the N highest peaks (0: all)")

	flagSet.Parse(os.Args[2:])

	// make sure both flags are present
	if *outputPtr == "" || *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if err := validate.ArtifactFile(*inputPtr); err != nil {
		log.Fatal(err)
	}

	timer = time.Now()
	fmt.Println("▶️  Loading DEM")
	grid, err := dem.ReadArtifact(*inputPtr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded DEM in", time.Since(timer).String())

	timer = time.Now()
	fmt.Println("▶️  Finding peaks")
	found := Find(grid, *minPtr)
	if *limitPtr > 0 && len(found) > *limitPtr {
		found = found[:*limitPtr]
	}
	fmt.Printf("✔️  Found %d peaks in %s\n", len(found), time.Since(timer).String())

	timer = time.Now()
	fmt.Println("▶️  Writing GeoJSON")
	bytes, err := FeatureCollection(found).MarshalJSON()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*outputPtr, bytes, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Wrote GeoJSON in", time.Since(timer).String())

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}
