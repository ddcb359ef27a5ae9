package tiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gruppe-adler/demcache/internal/geo"
)

// scenario box, two tiles: N33W119 and N34W119
var scenarioBox = geo.BoundingBox{LatMin: 33.9, LatMax: 34.2, LonMin: -118.4, LonMax: -118.1}

type tileServer struct {
	*httptest.Server
	requests atomic.Int32
}

// newTileServer serves "<stem>" as the body of /<stem>.hgt for every stem
// in available and 404 otherwise.
func newTileServer(t *testing.T, available ...string) *tileServer {
	t.Helper()
	ts := &tileServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests.Add(1)
		stem := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".hgt")
		for _, a := range available {
			if a == stem {
				w.Write([]byte(stem))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestFetcher(t *testing.T, url string) *Fetcher {
	t.Helper()
	c, err := NewCatalog(url, "{stem}.hgt", nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewFetcher(c, Options{Workers: 2, Timeout: 5 * time.Second, ChunkSize: 4})
}

func TestFetchAll(t *testing.T) {
	srv := newTileServer(t, "N33W119", "N34W119")
	dir := t.TempDir()

	result, err := newTestFetcher(t, srv.URL).Fetch(context.Background(), scenarioBox, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tiles) != 2 || len(result.Failures) != 0 {
		t.Fatalf("got %d tiles, %d failures", len(result.Tiles), len(result.Failures))
	}
	for i, stem := range []string{"N33W119", "N34W119"} {
		tile := result.Tiles[i]
		if tile.Cell.Stem() != stem {
			t.Errorf("tile %d is %s, want %s", i, tile.Cell.Stem(), stem)
		}
		b, err := os.ReadFile(tile.LocalPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != stem {
			t.Errorf("tile %s content %q", stem, b)
		}
	}

	parts, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	if len(parts) != 0 {
		t.Errorf("leftover partial files: %v", parts)
	}
}

func TestFetchPartialFailure(t *testing.T) {
	srv := newTileServer(t, "N34W119")

	result, err := newTestFetcher(t, srv.URL).Fetch(context.Background(), scenarioBox, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tiles) != 1 || result.Tiles[0].Cell.Stem() != "N34W119" {
		t.Fatalf("unexpected tiles %+v", result.Tiles)
	}
	if len(result.Failures) != 1 || result.Failures[0].Status != http.StatusNotFound {
		t.Fatalf("unexpected failures %+v", result.Failures)
	}
	if !result.Failures[0].NotFound() {
		t.Error("404 should count as not found")
	}
}

func TestFetchNoTiles(t *testing.T) {
	srv := newTileServer(t)
	dir := t.TempDir()

	result, err := newTestFetcher(t, srv.URL).Fetch(context.Background(), scenarioBox, dir)
	if !errors.Is(err, ErrNoTilesAvailable) {
		t.Fatalf("expected ErrNoTilesAvailable, got %v", err)
	}
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Errorf("expected wrapped DownloadError in %v", err)
	}
	if len(result.Failures) != 2 {
		t.Errorf("expected 2 failures, got %d", len(result.Failures))
	}
	if got := srv.requests.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestFetchBoundedWorkersAndSlowTileTimeout(t *testing.T) {
	// four tiles: N33W119, N33W118, N34W119, N34W118
	box := geo.BoundingBox{LatMin: 33.5, LatMax: 34.5, LonMin: -118.5, LonMax: -117.5}

	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		stem := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".hgt")
		delay := 50 * time.Millisecond
		if stem == "N33W119" {
			delay = 2 * time.Second
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(stem))
	}))
	t.Cleanup(srv.Close)

	c, err := NewCatalog(srv.URL, "{stem}.hgt", nil)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c, Options{Workers: 2, Timeout: 300 * time.Millisecond, ChunkSize: 1024})

	result, err := f.Fetch(context.Background(), box, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if got := peak.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent downloads, got %d", got)
	}
	if len(result.Tiles) != 3 {
		t.Errorf("expected 3 tiles, got %d", len(result.Tiles))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failures))
	}
	if !strings.HasSuffix(result.Failures[0].URL, "/N33W119.hgt") {
		t.Errorf("unexpected failed tile %s", result.Failures[0].URL)
	}
	for _, tile := range result.Tiles {
		if tile.Cell.Stem() == "N33W119" {
			t.Error("slow tile should not be in the result")
		}
	}
}

func TestFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(100))
		w.Write([]byte("short"))
	}))
	defer srv.Close()
	dir := t.TempDir()

	f := newTestFetcher(t, srv.URL)
	box := geo.BoundingBox{LatMin: 34.1, LatMax: 34.2, LonMin: -118.4, LonMax: -118.3}
	_, err := f.Fetch(context.Background(), box, dir)
	if !errors.Is(err, ErrNoTilesAvailable) {
		t.Fatalf("expected ErrNoTilesAvailable, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files after truncated download, got %d", len(entries))
	}
}

func TestFetchCancelled(t *testing.T) {
	srv := newTileServer(t, "N33W119", "N34W119")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(t, srv.URL).Fetch(ctx, scenarioBox, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFetchEmptyPlan(t *testing.T) {
	c, _ := NewCatalog("http://example.test/", "{stem}.hgt", Index{})
	f := NewFetcher(c, Options{})

	_, err := f.Fetch(context.Background(), scenarioBox, t.TempDir())
	if !errors.Is(err, ErrNoTilesAvailable) {
		t.Errorf("expected ErrNoTilesAvailable, got %v", err)
	}
}
