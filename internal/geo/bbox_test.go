package geo

import (
	"math"
	"testing"
)

func TestFromPoints(t *testing.T) {
	box, err := FromPoints([]float64{34.1, 34.0, 34.05}, []float64{-118.2, -118.3, -118.25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BoundingBox{LatMin: 34.0, LatMax: 34.1, LonMin: -118.3, LonMax: -118.2}
	if box != want {
		t.Errorf("expected %v, got %v", want, box)
	}
}

func TestFromPointsErrors(t *testing.T) {
	if _, err := FromPoints(nil, nil); err == nil {
		t.Error("expected error for empty point set")
	}
	if _, err := FromPoints([]float64{1, 2}, []float64{1}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestExpand(t *testing.T) {
	box := BoundingBox{LatMin: 34.0, LatMax: 34.1, LonMin: -118.3, LonMax: -118.2}.Expand(0.1)

	const eps = 1e-9
	for _, c := range []struct {
		name      string
		got, want float64
	}{
		{"LatMin", box.LatMin, 33.9},
		{"LatMax", box.LatMax, 34.2},
		{"LonMin", box.LonMin, -118.4},
		{"LonMax", box.LonMax, -118.1},
	} {
		if math.Abs(c.got-c.want) > eps {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestBoundRoundTrip(t *testing.T) {
	box := BoundingBox{LatMin: -1, LatMax: 2, LonMin: -3, LonMax: 4}
	if got := FromBound(box.Bound()); got != box {
		t.Errorf("expected %v, got %v", box, got)
	}
	if !box.Contains(0, 0) {
		t.Error("expected origin inside box")
	}
	if box.Contains(3, 0) {
		t.Error("expected lat 3 outside box")
	}
}
