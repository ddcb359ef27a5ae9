package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// Clear deletes the cache, or only the downloaded tiles with -tiles.
func Clear(flagSet *flag.FlagSet) {
	timer := time.Now()

	configPtr := configFlag(flagSet)
	tilesPtr := flagSet.Bool("tiles", false, "Only delete downloaded tiles, keep built DEMs")

	flagSet.Parse(os.Args[2:])

	_, p := mustPipeline(context.Background(), *configPtr)

	if *tilesPtr {
		fmt.Println("▶️  Clearing downloaded tiles")
		if err := p.ClearTiles(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("✔️  Cleared downloaded tiles in", time.Since(timer).String())
		return
	}

	fmt.Println("▶️  Clearing cache", p.Store().Root())
	if err := p.ClearCache(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Cleared cache in", time.Since(timer).String())
}
