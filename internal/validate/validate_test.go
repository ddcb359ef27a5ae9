package validate

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPoints(t *testing.T) {
	if err := Points([]float64{34, -90, 90}, []float64{-118, 180, -180}); err != nil {
		t.Errorf("valid points rejected: %v", err)
	}

	invalid := []struct {
		name       string
		lats, lons []float64
	}{
		{"empty", nil, nil},
		{"mismatch", []float64{1, 2}, []float64{1}},
		{"nan", []float64{math.NaN()}, []float64{1}},
		{"inf", []float64{1}, []float64{math.Inf(-1)}},
		{"lat range", []float64{90.5}, []float64{0}},
		{"lon range", []float64{0}, []float64{-181}},
	}
	for _, c := range invalid {
		if err := Points(c.lats, c.lons); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", c.name, err)
		}
	}
}

func TestBuffer(t *testing.T) {
	for _, ok := range []float64{0, 0.1, 2} {
		if err := Buffer(ok); err != nil {
			t.Errorf("Buffer(%v): %v", ok, err)
		}
	}
	for _, bad := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if err := Buffer(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Buffer(%v): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}

func TestArtifactFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.raw")
	os.WriteFile(path, nil, 0o644)

	if err := ArtifactFile(path); err != nil {
		t.Error(err)
	}
	if err := ArtifactFile(dir); err == nil {
		t.Error("directory accepted as artifact")
	}
	if err := ArtifactFile(filepath.Join(dir, "missing.raw")); err == nil {
		t.Error("missing file accepted")
	}
}
