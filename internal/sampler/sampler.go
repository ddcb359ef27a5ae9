package sampler

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/gruppe-adler/demcache/internal/dem"
	"github.com/gruppe-adler/demcache/internal/metrics"
)

// ElevationSample is the answer for one point. Value is meaningless when
// Err is set.
type ElevationSample struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Value float64 `json:"elevation"`
	Err   error   `json:"-"`
}

// OK reports whether the sample holds an elevation.
func (s ElevationSample) OK() bool { return s.Err == nil }

// Handle is an open artifact answering point queries.
type Handle struct {
	artifact *dem.Artifact
}

// Open opens the artifact at path.
func Open(path string) (*Handle, error) {
	a, err := dem.OpenArtifact(path)
	if err != nil {
		return nil, err
	}
	return &Handle{artifact: a}, nil
}

// Transform returns the raster's geotransform.
func (h *Handle) Transform() dem.Geotransform { return h.artifact.Header().Transform }

// Size returns the raster's columns and rows.
func (h *Handle) Size() (cols, rows int) {
	header := h.artifact.Header()
	return header.Cols, header.Rows
}

// Sample reads the elevation of the pixel containing (lat, lon).
func (h *Handle) Sample(lat, lon float64) (float64, error) {
	header := h.artifact.Header()
	fx, fy := header.Transform.Pixel(lat, lon)

	if !finite(fx) || !finite(fy) {
		return 0, &OutOfBoundsError{Lat: lat, Lon: lon, X: -1, Y: -1}
	}
	x, y := math.Floor(fx), math.Floor(fy)
	if x < 0 || y < 0 || x >= float64(header.Cols) || y >= float64(header.Rows) {
		return 0, &OutOfBoundsError{Lat: lat, Lon: lon, X: clampInt(x), Y: clampInt(y)}
	}

	v, err := h.artifact.ReadCell(int(x), int(y))
	if err != nil {
		return 0, fmt.Errorf("read (%d, %d): %w", int(x), int(y), err)
	}
	if dem.IsNoData(v, header.NoData) {
		return 0, ErrNoData
	}
	return float64(v), nil
}

// Close releases the artifact.
func (h *Handle) Close() error {
	return h.artifact.Close()
}

// Options control SampleBatch.
type Options struct {
	// FailFast stops at the first failing point; the remaining samples are
	// returned without values or errors.
	FailFast bool
}

// SampleBatch samples every (lats[i], lons[i]) through one handle. Per-point
// failures are recorded on their sample and combined into the returned
// error; a failure to open the artifact returns no samples.
func SampleBatch(path string, lats, lons []float64, opts Options) ([]ElevationSample, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("got %d latitudes and %d longitudes", len(lats), len(lons))
	}

	h, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	samples := make([]ElevationSample, len(lats))
	var errs error
	for i := range lats {
		s := &samples[i]
		s.Lat, s.Lon = lats[i], lons[i]
		s.Value, s.Err = h.Sample(s.Lat, s.Lon)
		if s.Err == nil {
			metrics.SamplesServed.WithLabelValues("ok").Inc()
			continue
		}

		metrics.SamplesServed.WithLabelValues(result(s.Err)).Inc()
		errs = multierr.Append(errs, fmt.Errorf("point %d: %w", i, s.Err))
		if opts.FailFast {
			for j := i + 1; j < len(samples); j++ {
				samples[j].Lat, samples[j].Lon = lats[j], lons[j]
			}
			break
		}
	}
	return samples, errs
}

func result(err error) string {
	switch {
	case errors.Is(err, ErrNoData):
		return "nodata"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	default:
		return "error"
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clampInt(f float64) int {
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}
