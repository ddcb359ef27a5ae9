package server

import (
	"context"

	"github.com/gruppe-adler/demcache/internal/registry"
	"github.com/gruppe-adler/demcache/internal/sampler"
)

// DEMService is the part of the pipeline the API exposes.
type DEMService interface {
	Generate(ctx context.Context, lats, lons []float64, buffer float64) (string, error)
	SampleWith(lats, lons []float64, path string, opts sampler.Options) ([]sampler.ElevationSample, error)
	ClearCache() error
	ClearTiles() error
	CacheUsage() (int64, error)
	Artifacts(ctx context.Context) ([]registry.Record, error)
}

// Dependencies holds what the handlers need.
type Dependencies struct {
	DEM     DEMService
	Version string
}
