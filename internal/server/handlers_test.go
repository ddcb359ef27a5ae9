package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/gruppe-adler/demcache/internal/cache"
	"github.com/gruppe-adler/demcache/internal/registry"
	"github.com/gruppe-adler/demcache/internal/sampler"
	"github.com/gruppe-adler/demcache/internal/tiles"
	"github.com/gruppe-adler/demcache/internal/validate"
)

// ---- Fake service ----

type fakeDEM struct {
	generateFn   func(ctx context.Context, lats, lons []float64, buffer float64) (string, error)
	sampleFn     func(lats, lons []float64, path string, opts sampler.Options) ([]sampler.ElevationSample, error)
	clearFn      func() error
	clearTilesFn func() error
	usage        int64
	artifacts    []registry.Record
}

func (f *fakeDEM) Generate(ctx context.Context, lats, lons []float64, buffer float64) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(ctx, lats, lons, buffer)
	}
	return "/tmp/terrain/dem_cache/33_-119_34_-118.raw", nil
}

func (f *fakeDEM) SampleWith(lats, lons []float64, path string, opts sampler.Options) ([]sampler.ElevationSample, error) {
	if f.sampleFn != nil {
		return f.sampleFn(lats, lons, path, opts)
	}
	samples := make([]sampler.ElevationSample, len(lats))
	for i := range lats {
		samples[i] = sampler.ElevationSample{Lat: lats[i], Lon: lons[i], Value: 100}
	}
	return samples, nil
}

func (f *fakeDEM) ClearCache() error {
	if f.clearFn != nil {
		return f.clearFn()
	}
	return nil
}

func (f *fakeDEM) ClearTiles() error {
	if f.clearTilesFn != nil {
		return f.clearTilesFn()
	}
	return nil
}

func (f *fakeDEM) CacheUsage() (int64, error) { return f.usage, nil }

func (f *fakeDEM) Artifacts(ctx context.Context) ([]registry.Record, error) { return f.artifacts, nil }

// ---- Test helpers ----

func setupApp(dem *fakeDEM) *fiber.App {
	return NewApp(&Dependencies{DEM: dem})
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

const scenarioBody = `{"lats":[34.0,34.1],"lons":[-118.3,-118.2]}`

// ---- Tests ----

func TestGenerate_Success(t *testing.T) {
	var gotBuffer float64
	dem := &fakeDEM{generateFn: func(ctx context.Context, lats, lons []float64, buffer float64) (string, error) {
		gotBuffer = buffer
		if len(lats) != 2 || lons[1] != -118.2 {
			t.Errorf("unexpected points %v %v", lats, lons)
		}
		return "/tmp/terrain/dem_cache/33_-119_34_-118.raw", nil
	}}
	app := setupApp(dem)

	status, body := do(t, app, "POST", "/v1/dem", `{"lats":[34.0,34.1],"lons":[-118.3,-118.2],"buffer":0.2}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var resp DEMResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Key != "33_-119_34_-118" {
		t.Errorf("key = %q", resp.Key)
	}
	if gotBuffer != 0.2 {
		t.Errorf("buffer = %v", gotBuffer)
	}
}

func TestGenerate_Errors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: no points given", validate.ErrInvalidInput), 400, "bad_request"},
		{fmt.Errorf("%w: nothing", tiles.ErrNoTilesAvailable), 404, "no_tiles"},
		{&cache.DiskSpaceError{Path: "/tmp", Needed: 2, Available: 1}, 507, "insufficient_storage"},
		{context.DeadlineExceeded, 504, "timeout"},
		{fmt.Errorf("boom"), 500, "internal_error"},
	}
	for _, c := range cases {
		dem := &fakeDEM{generateFn: func(context.Context, []float64, []float64, float64) (string, error) {
			return "", c.err
		}}
		status, body := do(t, setupApp(dem), "POST", "/v1/dem", scenarioBody)
		if status != c.status {
			t.Errorf("%v: expected %d, got %d", c.err, c.status, status)
			continue
		}
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err != nil {
			t.Fatal(err)
		}
		if apiErr.Code != c.code || apiErr.RequestID == "" {
			t.Errorf("%v: unexpected error body %s", c.err, body)
		}
	}
}

func TestGenerate_BadBody(t *testing.T) {
	status, _ := do(t, setupApp(&fakeDEM{}), "POST", "/v1/dem", `{"lats":`)
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestElevation_Success(t *testing.T) {
	dem := &fakeDEM{sampleFn: func(lats, lons []float64, path string, opts sampler.Options) ([]sampler.ElevationSample, error) {
		if !opts.FailFast {
			t.Error("fail_fast not passed through")
		}
		return []sampler.ElevationSample{
			{Lat: lats[0], Lon: lons[0], Value: 89.5},
			{Lat: lats[1], Lon: lons[1], Err: sampler.ErrNoData},
		}, sampler.ErrNoData
	}}

	status, body := do(t, setupApp(dem), "POST", "/v1/elevation", `{"lats":[34.0,34.1],"lons":[-118.3,-118.2],"fail_fast":true}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var resp ElevationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %s", body)
	}
	if resp.Samples[0].Elevation == nil || *resp.Samples[0].Elevation != 89.5 {
		t.Errorf("sample 0: %s", body)
	}
	if resp.Samples[1].Elevation != nil || resp.Samples[1].Error == "" {
		t.Errorf("sample 1: %s", body)
	}
}

func TestElevation_GeoJSON(t *testing.T) {
	status, body := do(t, setupApp(&fakeDEM{}), "POST", "/v1/elevation?format=geojson", scenarioBody)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !bytes.Contains(body, []byte(`"FeatureCollection"`)) {
		t.Errorf("expected FeatureCollection, got %s", body)
	}

	status, _ = do(t, setupApp(&fakeDEM{}), "POST", "/v1/elevation?format=kml", scenarioBody)
	if status != 400 {
		t.Errorf("expected 400 for unsupported format, got %d", status)
	}
}

func TestCache(t *testing.T) {
	dem := &fakeDEM{usage: 3 << 20, artifacts: []registry.Record{{Key: "33_-119_34_-118"}}}

	status, body := do(t, setupApp(dem), "GET", "/v1/cache", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var resp CacheResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.UsageBytes != 3<<20 || resp.Usage != "3.0 MiB" || len(resp.Artifacts) != 1 {
		t.Errorf("unexpected response %s", body)
	}
}

func TestClearCache(t *testing.T) {
	cleared, tilesCleared := false, false
	dem := &fakeDEM{
		clearFn:      func() error { cleared = true; return nil },
		clearTilesFn: func() error { tilesCleared = true; return nil },
	}
	app := setupApp(dem)

	if status, _ := do(t, app, "DELETE", "/v1/cache/tiles", ""); status != 204 || !tilesCleared {
		t.Errorf("clear tiles: status %d, cleared %t", status, tilesCleared)
	}
	if status, _ := do(t, app, "DELETE", "/v1/cache", ""); status != 204 || !cleared {
		t.Errorf("clear cache: status %d, cleared %t", status, cleared)
	}

	dem.clearFn = func() error { return fmt.Errorf("%w: /", cache.ErrUnsafeCacheRoot) }
	if status, _ := do(t, app, "DELETE", "/v1/cache", ""); status != 409 {
		t.Errorf("expected 409 for unsafe root, got %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(&fakeDEM{})

	status, body := do(t, app, "GET", "/health", "")
	if status != 200 || !bytes.Contains(body, []byte(`"healthy"`)) {
		t.Errorf("health: %d %s", status, body)
	}

	status, body = do(t, app, "GET", "/metrics", "")
	if status != 200 || !bytes.Contains(body, []byte("demcache_http_requests_total")) {
		t.Errorf("metrics: %d", status)
	}
}
