package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gruppe-adler/demcache/internal/cli"
	"github.com/gruppe-adler/demcache/internal/peaks"
	"github.com/gruppe-adler/demcache/internal/preview"
	"github.com/gruppe-adler/demcache/internal/terrainrgb"
)

type command struct {
	name        string
	description string
	run         func(*flag.FlagSet)
}

var subCommands []command

func init() {
	subCommands = []command{
		{"generate", "Build or find the cached DEM covering a set of points.", cli.Generate},
		{"sample", "Sample elevations from a cached DEM.", cli.Sample},
		{"info", "Print the build manifest of a cached DEM.", cli.Info},
		{"list", "List all cached DEMs.", cli.List},
		{"usage", "Print the disk usage of the cache.", cli.Usage},
		{"clear", "Delete the cache or only the downloaded tiles.", cli.Clear},
		{"preview", "Build preview images of a cached DEM.", preview.Run},
		{"terrainrgb", "Build Terrain-RGB tiles from a cached DEM.", terrainrgb.Run},
		{"peaks", "Export the peaks of a cached DEM as GeoJSON.", peaks.Run},
		{"serve", "Run the HTTP API.", cli.Serve},
		{"help", "Print this message.", func(s *flag.FlagSet) { printUsage() }},
	}
}

func printUsage() {
	fmt.Printf("USAGE:\n    %s [SUBCOMMAND] [SUBCOMMAND FLAGS]\n\n", os.Args[0])
	fmt.Print("SUBCOMMANDS: \n")

	for i := 0; i < len(subCommands); i++ {
		name := subCommands[i].name

		fmt.Printf("%12s    %s\n", name, subCommands[i].description)
	}

	fmt.Printf("\nUse -h as SUBCOMMAND FLAG to print help for each subcommand.\n\n")
}

func main() {

	if len(os.Args) < 2 {
		fmt.Printf("\nERROR: No subcommand was provided.\n\n")
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	for i := 0; i < len(subCommands); i++ {
		if subCommands[i].name == cmd {
			set := flag.NewFlagSet(cmd, flag.ExitOnError)
			subCommands[i].run(set)
			return
		}
	}

	fmt.Printf("\nERROR: Subcommand '%s' was not found.\n\n", cmd)
	printUsage()
	os.Exit(1)
}
