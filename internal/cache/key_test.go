package cache

import (
	"testing"

	"github.com/gruppe-adler/demcache/internal/geo"
)

func TestKeyForScenario(t *testing.T) {
	box := geo.BoundingBox{LatMin: 34.0, LatMax: 34.1, LonMin: -118.3, LonMax: -118.2}

	if got := KeyFor(box, 0.1); got != "33_-119_34_-118" {
		t.Errorf("expected 33_-119_34_-118, got %s", got)
	}
}

// Lower bounds floor, upper bounds truncate toward zero. Negative
// longitudes are where the two differ.
func TestKeyForRounding(t *testing.T) {
	for _, c := range []struct {
		box  geo.BoundingBox
		want Key
	}{
		{geo.BoundingBox{LatMin: 10.5, LatMax: 11.5, LonMin: 20.5, LonMax: 21.5}, "10_20_11_21"},
		{geo.BoundingBox{LatMin: -10.5, LatMax: -9.5, LonMin: -20.5, LonMax: -19.5}, "-11_-21_-9_-19"},
		{geo.BoundingBox{LatMin: -0.5, LatMax: 0.5, LonMin: -0.5, LonMax: 0.5}, "-1_-1_0_0"},
		{geo.BoundingBox{LatMin: 5, LatMax: 6, LonMin: -6, LonMax: -5}, "5_-6_6_-5"},
	} {
		if got := KeyFor(c.box, 0); got != c.want {
			t.Errorf("%v: expected %s, got %s", c.box, c.want, got)
		}
	}
}

// Requests that differ below one degree share a key. This documents the
// coarse granularity, it doesn't endorse it.
func TestKeyForSubDegreeRequestsCollide(t *testing.T) {
	a := geo.BoundingBox{LatMin: 34.0, LatMax: 34.1, LonMin: -118.3, LonMax: -118.2}
	b := geo.BoundingBox{LatMin: 33.2, LatMax: 34.5, LonMin: -118.8, LonMax: -118.5}

	if KeyFor(a, 0.1) != KeyFor(b, 0.1) {
		t.Errorf("expected equal keys, got %s and %s", KeyFor(a, 0.1), KeyFor(b, 0.1))
	}
}

func TestKeyForDependsOnBuffer(t *testing.T) {
	box := geo.BoundingBox{LatMin: 34.0, LatMax: 34.1, LonMin: -118.3, LonMax: -118.2}

	if KeyFor(box, 0.1) == KeyFor(box, 1.5) {
		t.Error("expected the buffer to change the key")
	}
}

func TestKeyCover(t *testing.T) {
	cover, err := Key("33_-119_34_-118").Cover()
	if err != nil {
		t.Fatal(err)
	}
	want := geo.BoundingBox{LatMin: 33, LatMax: 35, LonMin: -119, LonMax: -118}
	if cover != want {
		t.Errorf("Cover = %v, want %v", cover, want)
	}

	if _, err := Key("not-a-key").Cover(); err == nil {
		t.Error("expected error for malformed key")
	}
}

// Every box sharing a key must lie inside that key's cover.
func TestKeyCoverContainsBox(t *testing.T) {
	for lat := -3.0; lat <= 3.0; lat += 0.35 {
		for lon := -3.0; lon <= 3.0; lon += 0.45 {
			box := geo.BoundingBox{LatMin: lat, LatMax: lat + 0.3, LonMin: lon, LonMax: lon + 0.7}
			key := KeyFor(box, 0.1)
			cover, err := key.Cover()
			if err != nil {
				t.Fatal(err)
			}
			b := box.Expand(0.1)
			if b.LatMin < cover.LatMin || b.LatMax > cover.LatMax || b.LonMin < cover.LonMin || b.LonMax > cover.LonMax {
				t.Errorf("%v (key %s) not inside cover %v", b, key, cover)
			}
		}
	}
}
