package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/gruppe-adler/demcache/internal/cache"
	"github.com/gruppe-adler/demcache/internal/config"
	"github.com/gruppe-adler/demcache/internal/dem"
	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/manifest"
	"github.com/gruppe-adler/demcache/internal/metrics"
	"github.com/gruppe-adler/demcache/internal/mosaic"
	"github.com/gruppe-adler/demcache/internal/registry"
	"github.com/gruppe-adler/demcache/internal/sampler"
	"github.com/gruppe-adler/demcache/internal/tiles"
	"github.com/gruppe-adler/demcache/internal/utils"
	"github.com/gruppe-adler/demcache/internal/validate"
)

// Pipeline turns point sets into cached elevation rasters and answers
// elevation queries against them. It is safe for concurrent use; builds of
// one key are serialized across goroutines and processes.
type Pipeline struct {
	store      *cache.Store
	lock       *cache.TileLock
	fetcher    *tiles.Fetcher
	merger     *mosaic.Merger
	buffer     float64
	tileBytes  uint64
	client     *http.Client
	checkSpace func(needed uint64) error
	hook       func(cache.Key, State)
	group      singleflight.Group
}

// New creates a pipeline from cfg. If cfg names a tile index it is loaded
// here, once.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		store:     cache.NewStore(cfg.Cache.Root),
		merger:    &mosaic.Merger{},
		buffer:    cfg.Buffer(),
		tileBytes: cfg.Cache.EstimatedTileBytes,
		client:    http.DefaultClient,
	}
	p.lock = cache.NewTileLock(p.store)
	p.checkSpace = p.store.CheckSpace

	for _, opt := range opts {
		opt(p)
	}

	var index tiles.Index
	if cfg.Catalog.Index != "" {
		var err error
		if index, err = tiles.LoadIndex(ctx, p.client, cfg.Catalog.Index); err != nil {
			return nil, err
		}
		slog.Info("loaded tile index", "location", cfg.Catalog.Index, "tiles", len(index))
	}

	catalog, err := tiles.NewCatalog(cfg.Catalog.BaseURL, cfg.Catalog.Pattern, index)
	if err != nil {
		return nil, err
	}
	p.fetcher = tiles.NewFetcher(catalog, tiles.Options{
		Workers:   cfg.Fetch.Workers,
		Timeout:   cfg.Fetch.Timeout,
		ChunkSize: cfg.Fetch.ChunkSize,
		Client:    p.client,
	})

	return p, nil
}

// Store returns the cache store.
func (p *Pipeline) Store() *cache.Store { return p.store }

// Generate returns the path of an artifact covering the points' bounding
// box expanded by buffer degrees (<= 0 selects the configured default),
// building it first if the key isn't cached yet.
//
// Concurrent calls for one key share a single build. A caller whose ctx is
// still live never fails because of another caller's cancellation: if the
// caller running the shared build gives up, the others start over.
func (p *Pipeline) Generate(ctx context.Context, lats, lons []float64, buffer float64) (string, error) {
	if err := validate.Points(lats, lons); err != nil {
		return "", err
	}
	if err := validate.Buffer(buffer); err != nil {
		return "", err
	}
	if buffer <= 0 {
		buffer = p.buffer
	}

	box, err := geo.FromPoints(lats, lons)
	if err != nil {
		return "", err
	}
	key := p.store.KeyFor(box, buffer)
	p.state(key, KeyDerived, "bbox", box.Expand(buffer).String())

	for {
		v, err, shared := p.group.Do(string(key), func() (interface{}, error) {
			path, err := p.generate(ctx, key, box.Expand(buffer), buffer)
			return outcome{path: path, abandoned: err != nil && ctx.Err() != nil}, err
		})
		res := v.(outcome)
		if shared {
			slog.Debug("joined in-flight build", "key", key)
			if err != nil && res.abandoned && ctx.Err() == nil {
				slog.Info("shared build was cancelled, retrying", "key", key)
				continue
			}
		}
		if err != nil {
			return "", err
		}
		return res.path, nil
	}
}

// outcome is the shared result of one singleflight call.
type outcome struct {
	path string
	// abandoned is set when the ctx of the caller running the build ended
	abandoned bool
}

func (p *Pipeline) generate(ctx context.Context, key cache.Key, box geo.BoundingBox, buffer float64) (string, error) {
	entry, err := p.store.Entry(key)
	if err != nil {
		return "", err
	}
	path := entry.Path

	waiting := time.Now()
	acquired := false
	err = p.lock.WithLock(ctx, key, func() error {
		acquired = true
		metrics.LockWait.Observe(time.Since(waiting).Seconds())
		p.state(key, LockAcquired, "lock", entry.LockPath)

		if p.store.Exists(key) {
			metrics.CacheHits.Inc()
			p.state(key, CacheHit, "path", path)
			return nil
		}
		metrics.CacheMisses.Inc()
		return p.build(ctx, key, box, buffer, path)
	})
	if acquired {
		p.state(key, LockReleased)
	}
	if err != nil {
		return "", err
	}

	p.state(key, Done, "path", path)
	return path, nil
}

// build runs with the key's lock held and the artifact missing.
func (p *Pipeline) build(ctx context.Context, key cache.Key, box geo.BoundingBox, buffer float64, path string) error {
	start := time.Now()

	cover, err := key.Cover()
	if err != nil {
		return err
	}
	planned := p.fetcher.Plan(cover)

	if len(planned) > 0 {
		needed := uint64(len(planned)) * p.tileBytes
		if err := p.checkSpace(needed); err != nil {
			p.fail(key, DiskFull, err)
			return err
		}
	}

	staging, err := p.store.StagingDir(key)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := p.store.RemoveStaging(key); rerr != nil {
			slog.Warn("could not remove staging directory", "dir", staging, "error", rerr)
		}
		p.state(key, Cleanup, "dir", staging)
	}()

	p.state(key, Fetch, "tiles", len(planned))
	result, err := p.fetcher.Fetch(ctx, cover, staging)
	if err != nil {
		if errors.Is(err, tiles.ErrNoTilesAvailable) {
			p.fail(key, NoTilesAvailable, err)
		}
		return err
	}

	p.state(key, Merge, "tiles", len(result.Tiles), "missing", len(result.Failures))
	header, err := p.merger.Merge(result.Paths(), path)
	if err != nil {
		p.fail(key, MergeFailed, err)
		return err
	}

	took := time.Since(start)
	metrics.BuildDuration.Observe(took.Seconds())
	p.record(ctx, key, box, buffer, path, header, result, took)
	return nil
}

// record writes the manifest and the registry entry. Neither is needed to
// serve the artifact, so failures are only logged.
func (p *Pipeline) record(ctx context.Context, key cache.Key, box geo.BoundingBox, buffer float64, path string, header dem.Header, result *tiles.FetchResult, took time.Duration) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	m := manifest.Manifest{
		Key:       string(key),
		Box:       box,
		Buffer:    buffer,
		Grid:      header,
		Tiles:     make([]string, len(result.Tiles)),
		Size:      size,
		BuiltAt:   time.Now().UTC(),
		BuildTime: manifest.Duration(took),
	}
	for i, t := range result.Tiles {
		m.Tiles[i] = t.Cell.Stem()
	}
	for _, f := range result.Failures {
		m.MissingTiles = append(m.MissingTiles, filepath.Base(f.URL))
	}

	if err := manifest.Write(p.store.ManifestPath(key), m); err != nil {
		slog.Warn("could not write manifest", "key", key, "error", err)
	}

	reg, err := p.openRegistry()
	if err != nil {
		slog.Warn("could not open registry", "error", err)
		return
	}
	defer reg.Close()

	err = reg.Put(ctx, registry.Record{
		Key:       string(key),
		Path:      path,
		Box:       box,
		Cols:      header.Cols,
		Rows:      header.Rows,
		Tiles:     len(result.Tiles),
		Missing:   len(result.Failures),
		Size:      size,
		BuiltAt:   m.BuiltAt,
		BuildTime: took,
	})
	if err != nil {
		slog.Warn("could not record artifact", "key", key, "error", err)
	}

	slog.Info("built DEM", "key", key, "path", path, "size", humanize.IBytes(uint64(size)), "took", took)
}

func (p *Pipeline) openRegistry() (*registry.Registry, error) {
	if err := os.MkdirAll(p.store.Root(), 0o755); err != nil {
		return nil, err
	}
	return registry.Open(filepath.Join(p.store.Root(), registry.FileName))
}

// Artifacts lists the builds recorded in the registry. Entries whose
// artifact is gone from disk are dropped from the registry.
func (p *Pipeline) Artifacts(ctx context.Context) ([]registry.Record, error) {
	reg, err := p.openRegistry()
	if err != nil {
		return nil, err
	}
	defer reg.Close()

	records, err := reg.List(ctx)
	if err != nil {
		return nil, err
	}

	live := records[:0]
	for _, r := range records {
		if utils.IsFile(r.Path) {
			live = append(live, r)
			continue
		}
		slog.Info("dropping stale registry entry", "key", r.Key, "path", r.Path)
		if err := reg.Delete(ctx, r.Key); err != nil {
			return nil, err
		}
	}
	return live, nil
}

// Artifact returns the registry record of key. Missing or stale entries
// yield registry.ErrNotFound.
func (p *Pipeline) Artifact(ctx context.Context, key cache.Key) (registry.Record, error) {
	reg, err := p.openRegistry()
	if err != nil {
		return registry.Record{}, err
	}
	defer reg.Close()

	r, err := reg.Get(ctx, string(key))
	if err != nil {
		return registry.Record{}, err
	}
	if !utils.IsFile(r.Path) {
		return registry.Record{}, registry.ErrNotFound
	}
	return r, nil
}

// Manifest returns the build manifest of key.
func (p *Pipeline) Manifest(key cache.Key) (manifest.Manifest, error) {
	return manifest.Read(p.store.ManifestPath(key))
}

// Sample reads the elevation at every (lats[i], lons[i]) from the artifact
// at path. Per-point failures are set on the samples and combined into the
// returned error.
func (p *Pipeline) Sample(lats, lons []float64, path string) ([]sampler.ElevationSample, error) {
	return p.SampleWith(lats, lons, path, sampler.Options{})
}

// SampleWith is Sample with explicit options.
func (p *Pipeline) SampleWith(lats, lons []float64, path string, opts sampler.Options) ([]sampler.ElevationSample, error) {
	if err := validate.ArtifactFile(path); err != nil {
		return nil, err
	}
	return sampler.SampleBatch(path, lats, lons, opts)
}

// ClearCache deletes the whole cache root.
func (p *Pipeline) ClearCache() error {
	return p.store.Clear()
}

// ClearTiles deletes downloaded tiles only.
func (p *Pipeline) ClearTiles() error {
	return p.store.ClearTiles()
}

// CacheUsage returns the bytes used below the cache root.
func (p *Pipeline) CacheUsage() (int64, error) {
	return p.store.Usage()
}

func (p *Pipeline) state(key cache.Key, s State, args ...any) {
	slog.Info(string(s), append([]any{"key", key}, args...)...)
	if p.hook != nil {
		p.hook(key, s)
	}
}

func (p *Pipeline) fail(key cache.Key, s State, err error) {
	metrics.BuildFailures.WithLabelValues(string(s)).Inc()
	slog.Error(string(s), "key", key, "error", err)
	if p.hook != nil {
		p.hook(key, s)
	}
}
