package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
)

// Usage prints how much disk space the cache uses.
func Usage(flagSet *flag.FlagSet) {
	configPtr := configFlag(flagSet)

	flagSet.Parse(os.Args[2:])

	_, p := mustPipeline(context.Background(), *configPtr)

	bytes, err := p.CacheUsage()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %s (%d bytes)\n", p.Store().Root(), humanize.Bytes(uint64(bytes)), bytes)
}
