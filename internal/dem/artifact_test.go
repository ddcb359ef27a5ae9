package dem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "33_-119_34_-118.raw")

	g := NewGrid(4, 3, NewGeotransform(-119, 0.25, 34, -0.25), -9999)
	for i := range g.Data {
		g.Data[i] = float32(i) * 1.5
	}
	if err := WriteArtifact(path, g); err != nil {
		t.Fatalf("write: %v", err)
	}

	a, err := OpenArtifact(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	h := a.Header()
	if h.Cols != 4 || h.Rows != 3 || h.Transform != g.Transform || h.NoData != -9999 {
		t.Errorf("unexpected header %+v", h)
	}

	v, err := a.ReadCell(2, 1)
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if v != g.At(2, 1) {
		t.Errorf("expected %v, got %v", g.At(2, 1), v)
	}

	if _, err := a.ReadCell(4, 0); err == nil {
		t.Error("expected error outside grid")
	}

	all, err := a.Grid()
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	for i := range g.Data {
		if all.Data[i] != g.Data[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, g.Data[i], all.Data[i])
		}
	}
}

func TestArtifactWriterLeavesNothingOnAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.raw")

	w, err := CreateArtifact(path, Header{Cols: 2, Rows: 2, Transform: NewGeotransform(0, 1, 2, -1)})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRow([]float32{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := w.Commit(); err == nil {
		t.Fatal("expected error committing an incomplete artifact")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestOpenArtifactRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.raw")
	os.WriteFile(path, []byte("ncols 1\nnrows 1\n"), 0o644)

	if _, err := OpenArtifact(path); !errors.Is(err, ErrNotArtifact) {
		t.Errorf("expected ErrNotArtifact, got %v", err)
	}
}
