package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
)

// List prints all builds recorded in the cache registry, newest first.
func List(flagSet *flag.FlagSet) {
	configPtr := configFlag(flagSet)

	flagSet.Parse(os.Args[2:])

	ctx := context.Background()
	_, p := mustPipeline(ctx, *configPtr)

	records, err := p.Artifacts(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(records) == 0 {
		fmt.Println("No cached DEMs.")
		return
	}

	fmt.Printf("%-24s %11s %6s %10s  %s\n", "KEY", "GRID", "TILES", "SIZE", "BUILT")
	for _, r := range records {
		grid := fmt.Sprintf("%dx%d", r.Cols, r.Rows)
		tiles := fmt.Sprintf("%d", r.Tiles)
		if r.Missing > 0 {
			tiles = fmt.Sprintf("%d/%d", r.Tiles, r.Tiles+r.Missing)
		}
		fmt.Printf("%-24s %11s %6s %10s  %s\n", r.Key, grid, tiles, humanize.Bytes(uint64(r.Size)), humanize.Time(r.BuiltAt))
	}
}
