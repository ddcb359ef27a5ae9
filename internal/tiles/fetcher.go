package tiles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/metrics"
)

const (
	DefaultWorkers   = 4
	DefaultTimeout   = 2 * time.Minute
	DefaultChunkSize = 1 << 20
)

// Options tune a Fetcher. Zero values select the defaults.
type Options struct {
	Workers   int
	Timeout   time.Duration
	ChunkSize int
	Client    *http.Client
}

// Fetcher downloads the tiles covering a bounding box into a directory.
type Fetcher struct {
	catalog   *Catalog
	client    *http.Client
	workers   int
	timeout   time.Duration
	chunkSize int
}

// NewFetcher creates a fetcher for catalog.
func NewFetcher(catalog *Catalog, opts Options) *Fetcher {
	f := &Fetcher{
		catalog:   catalog,
		client:    opts.Client,
		workers:   opts.Workers,
		timeout:   opts.Timeout,
		chunkSize: opts.ChunkSize,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.workers <= 0 {
		f.workers = DefaultWorkers
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.chunkSize <= 0 {
		f.chunkSize = DefaultChunkSize
	}
	return f
}

// Catalog returns the catalog tiles are resolved against.
func (f *Fetcher) Catalog() *Catalog { return f.catalog }

// FetchResult lists the tiles that made it to disk, in catalog order, and
// the ones that didn't.
type FetchResult struct {
	Tiles    []Tile
	Failures []*DownloadError
}

// Paths returns the local paths of the fetched tiles.
func (r *FetchResult) Paths() []string {
	paths := make([]string, len(r.Tiles))
	for i, t := range r.Tiles {
		paths[i] = t.LocalPath
	}
	return paths
}

// Plan lists the tiles Fetch would download for box.
func (f *Fetcher) Plan(box geo.BoundingBox) []Tile {
	return f.catalog.TilesFor(box)
}

// Fetch downloads every tile intersecting box into dir. Individual
// failures are collected, not returned; only if no tile at all could be
// fetched does Fetch fail with ErrNoTilesAvailable. A cancelled ctx aborts
// outstanding downloads and is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, box geo.BoundingBox, dir string) (*FetchResult, error) {
	planned := f.Plan(box)
	if len(planned) == 0 {
		return &FetchResult{}, fmt.Errorf("%w: no catalog tiles intersect %s", ErrNoTilesAvailable, box)
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	slog.Info("fetching tiles", "count", len(planned), "workers", f.workers, "box", box.String())

	errs := make([]*DownloadError, len(planned))
	sem := semaphore.NewWeighted(int64(f.workers))
	wg := sync.WaitGroup{}

	for i := range planned {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			t := &planned[i]
			t.LocalPath = filepath.Join(dir, filepath.Base(t.SourceURL))
			errs[i] = f.download(ctx, t.SourceURL, t.LocalPath)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &FetchResult{}
	var combined error
	for i, t := range planned {
		if errs[i] != nil {
			result.Failures = append(result.Failures, errs[i])
			combined = multierr.Append(combined, errs[i])
			continue
		}
		result.Tiles = append(result.Tiles, t)
	}

	for _, e := range result.Failures {
		if e.NotFound() {
			slog.Info("tile not in catalog", "url", e.URL, "status", e.Status)
		} else {
			slog.Warn("tile download failed", "url", e.URL, "error", e)
		}
	}

	if len(result.Tiles) == 0 {
		return result, fmt.Errorf("%w: %w", ErrNoTilesAvailable, combined)
	}

	slog.Info("fetched tiles", "ok", len(result.Tiles), "failed", len(result.Failures))
	return result, nil
}

// download streams url to path in chunks, via a .part file renamed on
// success, so a partial tile is never visible under its final name.
func (f *Fetcher) download(ctx context.Context, url, path string) *DownloadError {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	fail := func(status int, err error) *DownloadError {
		metrics.TileDownloads.WithLabelValues("error").Inc()
		return &DownloadError{URL: url, Status: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(0, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	out, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fail(0, err)
	}
	part := out.Name()

	// Hide ReaderFrom so the chunk buffer is actually used.
	n, err := io.CopyBuffer(struct{ io.Writer }{out}, resp.Body, make([]byte, f.chunkSize))
	if err == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		err = fmt.Errorf("truncated body: got %d of %d bytes", n, resp.ContentLength)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(part, path)
	}
	if err != nil {
		os.Remove(part)
		return fail(0, err)
	}

	metrics.TileDownloads.WithLabelValues("ok").Inc()
	metrics.TileBytes.Add(float64(n))
	slog.Debug("downloaded tile", "url", url, "size", humanize.IBytes(uint64(n)), "took", time.Since(start))
	return nil
}
