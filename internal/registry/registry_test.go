package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gruppe-adler/demcache/internal/geo"
)

func openTest(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPutGetList(t *testing.T) {
	ctx := context.Background()
	r := openTest(t)

	older := Record{
		Key:       "33_-119_34_-118",
		Path:      "/tmp/terrain/dem_cache/33_-119_34_-118.raw",
		Box:       geo.BoundingBox{LatMin: 33.9, LatMax: 34.2, LonMin: -118.4, LonMax: -118.1},
		Cols:      3601,
		Rows:      7201,
		Tiles:     2,
		Size:      103723272,
		BuiltAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		BuildTime: 42 * time.Second,
	}
	newer := older
	newer.Key = "47_10_48_11"
	newer.Missing = 1
	newer.BuiltAt = older.BuiltAt.Add(time.Hour)

	for _, rec := range []Record{older, newer} {
		if err := r.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.Get(ctx, older.Key)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BuiltAt.Equal(older.BuiltAt) {
		t.Errorf("BuiltAt = %v, want %v", got.BuiltAt, older.BuiltAt)
	}
	got.BuiltAt = older.BuiltAt
	if got != older {
		t.Errorf("Get = %+v, want %+v", got, older)
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Key != newer.Key || list[1].Key != older.Key {
		t.Errorf("unexpected list order: %+v", list)
	}
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	r := openTest(t)

	rec := Record{Key: "1_2_3_4", Path: "a", BuiltAt: time.Unix(0, 0).UTC()}
	r.Put(ctx, rec)
	rec.Path = "b"
	if err := r.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}

	list, _ := r.List(ctx)
	if len(list) != 1 || list[0].Path != "b" {
		t.Errorf("expected one replaced record, got %+v", list)
	}
}

func TestGetDelete(t *testing.T) {
	ctx := context.Background()
	r := openTest(t)

	if _, err := r.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	r.Put(ctx, Record{Key: "k", BuiltAt: time.Unix(0, 0).UTC()})
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := r.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting twice: %v", err)
	}
}
