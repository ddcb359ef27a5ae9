package server

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/gruppe-adler/demcache/internal/export"
	"github.com/gruppe-adler/demcache/internal/registry"
	"github.com/gruppe-adler/demcache/internal/sampler"
)

// maxPoints bounds a single request.
const maxPoints = 100000

// PointsRequest is the body of /v1/dem and /v1/elevation.
type PointsRequest struct {
	Lats     []float64 `json:"lats"`
	Lons     []float64 `json:"lons"`
	Buffer   float64   `json:"buffer"`
	FailFast bool      `json:"fail_fast"`
}

// DEMResponse names a generated artifact.
type DEMResponse struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// Sample is one point of an ElevationResponse. Elevation is null on error.
type Sample struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation"`
	Error     string   `json:"error,omitempty"`
}

// ElevationResponse lists the samples in request order.
type ElevationResponse struct {
	DEMResponse
	Samples []Sample `json:"samples"`
}

// CacheResponse describes the cache.
type CacheResponse struct {
	UsageBytes int64             `json:"usage_bytes"`
	Usage      string            `json:"usage"`
	Artifacts  []registry.Record `json:"artifacts"`
}

func parsePoints(c *fiber.Ctx) (PointsRequest, error) {
	var req PointsRequest
	if err := c.BodyParser(&req); err != nil {
		return req, errors.New("invalid JSON body")
	}
	if len(req.Lats) > maxPoints {
		return req, errors.New("too many points")
	}
	return req, nil
}

func demResponse(path string) DEMResponse {
	return DEMResponse{Key: strings.TrimSuffix(filepath.Base(path), ".raw"), Path: path}
}

// GenerateHandler builds (or finds) the artifact for a point set.
func GenerateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parsePoints(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		path, err := deps.DEM.Generate(c.Context(), req.Lats, req.Lons, req.Buffer)
		if err != nil {
			return errFromPipeline(c, err)
		}
		return c.JSON(demResponse(path))
	}
}

// ElevationHandler generates the artifact for the points and samples them.
// ?format=geojson returns a FeatureCollection instead.
func ElevationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := strings.ToLower(c.Query("format", "json"))
		if format != "json" && format != "geojson" {
			return errBadRequest(c, "format must be json or geojson")
		}

		req, err := parsePoints(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		path, err := deps.DEM.Generate(c.Context(), req.Lats, req.Lons, req.Buffer)
		if err != nil {
			return errFromPipeline(c, err)
		}

		// per-point failures are reported inline
		samples, err := deps.DEM.SampleWith(req.Lats, req.Lons, path, sampler.Options{FailFast: req.FailFast})
		if samples == nil && err != nil {
			return errFromPipeline(c, err)
		}

		if format == "geojson" {
			return c.JSON(export.FeatureCollection(samples))
		}

		resp := ElevationResponse{DEMResponse: demResponse(path), Samples: make([]Sample, len(samples))}
		for i, s := range samples {
			resp.Samples[i] = Sample{Lat: s.Lat, Lon: s.Lon}
			if s.OK() {
				v := s.Value
				resp.Samples[i].Elevation = &v
			} else if s.Err != nil {
				resp.Samples[i].Error = s.Err.Error()
			}
		}
		return c.JSON(resp)
	}
}

// CacheHandler reports usage and the recorded artifacts.
func CacheHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usage, err := deps.DEM.CacheUsage()
		if err != nil {
			return errInternal(c, err.Error())
		}
		artifacts, err := deps.DEM.Artifacts(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		if artifacts == nil {
			artifacts = []registry.Record{}
		}
		return c.JSON(CacheResponse{
			UsageBytes: usage,
			Usage:      humanize.IBytes(uint64(usage)),
			Artifacts:  artifacts,
		})
	}
}

// ClearCacheHandler deletes the cache root.
func ClearCacheHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.DEM.ClearCache(); err != nil {
			return errFromPipeline(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ClearTilesHandler deletes downloaded tiles.
func ClearTilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.DEM.ClearTiles(); err != nil {
			return errFromPipeline(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": version,
		})
	}
}
