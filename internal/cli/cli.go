// Package cli implements the demcache subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gruppe-adler/demcache/internal/config"
	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/logging"
	"github.com/gruppe-adler/demcache/internal/pipeline"
)

// configFlag registers the -config flag every subcommand shares.
func configFlag(flagSet *flag.FlagSet) *string {
	return flagSet.String("config", "", "Path to config file (default: search demcache.yaml)")
}

// mustLoad loads the configuration and sets up logging.
func mustLoad(file string) *config.Config {
	cfg, err := config.Load(file)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg
}

// mustPipeline loads the configuration and creates the pipeline.
func mustPipeline(ctx context.Context, file string) (*config.Config, *pipeline.Pipeline) {
	cfg := mustLoad(file)
	p, err := pipeline.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	return cfg, p
}

// ParseFloats parses a comma separated list like "34.0, 34.1".
func ParseFloats(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		values = append(values, f)
	}
	return values, nil
}

// parsePoints parses the -lats and -lons flags.
func parsePoints(lats, lons string) ([]float64, []float64, error) {
	latValues, err := ParseFloats(lats)
	if err != nil {
		return nil, nil, fmt.Errorf("-lats: %w", err)
	}
	lonValues, err := ParseFloats(lons)
	if err != nil {
		return nil, nil, fmt.Errorf("-lons: %w", err)
	}
	if len(latValues) == 0 || len(lonValues) == 0 {
		return nil, nil, errors.New("-lats and -lons are required")
	}
	return latValues, lonValues, nil
}

// RandomPoints draws n points uniformly from box.
func RandomPoints(box geo.BoundingBox, n int, rng *rand.Rand) (lats, lons []float64) {
	lats = make([]float64, n)
	lons = make([]float64, n)
	for i := 0; i < n; i++ {
		lats[i] = box.LatMin + rng.Float64()*(box.LatMax-box.LatMin)
		lons[i] = box.LonMin + rng.Float64()*(box.LonMax-box.LonMin)
	}
	return lats, lons
}
