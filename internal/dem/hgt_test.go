package dem

import (
	"archive/zip"
	"compress/gzip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// hgtBytes builds an n*n tile where every sample is row*100+col.
func hgtBytes(n int) []byte {
	b := make([]byte, 2*n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			binary.BigEndian.PutUint16(b[2*(row*n+col):], uint16(int16(row*100+col)))
		}
	}
	return b
}

func TestParseHGT(t *testing.T) {
	g, err := ParseHGT("N34W119.hgt", hgtBytes(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.Cols != 5 || g.Rows != 5 {
		t.Fatalf("expected 5x5, got %dx%d", g.Cols, g.Rows)
	}
	west, south, east, north := g.Extent()
	const eps = 1e-9
	if math.Abs(west-(-119.125)) > eps || math.Abs(east-(-117.875)) > eps ||
		math.Abs(south-33.875) > eps || math.Abs(north-35.125) > eps {
		t.Errorf("unexpected extent %v %v %v %v", west, south, east, north)
	}
	if g.At(3, 2) != 203 {
		t.Errorf("expected 203 at (3, 2), got %v", g.At(3, 2))
	}
}

func TestParseHGTErrors(t *testing.T) {
	if _, err := ParseHGT("tile.hgt", hgtBytes(3)); err == nil {
		t.Error("expected error for unnamed tile")
	}
	if _, err := ParseHGT("N00E000.hgt", make([]byte, 7)); err == nil {
		t.Error("expected error for odd size")
	}
}

func TestReadFileCompressed(t *testing.T) {
	dir := t.TempDir()

	gzPath := filepath.Join(dir, "S04E005.hgt.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	gz.Write(hgtBytes(3))
	gz.Close()
	f.Close()

	zipPath := filepath.Join(dir, "N10E020.hgt.zip")
	f, err = os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("N10E020.hgt")
	w.Write(hgtBytes(3))
	zw.Close()
	f.Close()

	g, err := ReadFile(gzPath)
	if err != nil {
		t.Fatalf("gz: %v", err)
	}
	if g.Transform.OriginX() != 4.75 || g.Transform.OriginY() != -2.75 {
		t.Errorf("gz: unexpected origin %v", g.Transform)
	}

	g, err = ReadFile(zipPath)
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if g.At(1, 1) != 101 {
		t.Errorf("zip: expected 101, got %v", g.At(1, 1))
	}

	bad := filepath.Join(dir, "tile.tif")
	os.WriteFile(bad, []byte("II*"), 0o644)
	if _, err := ReadFile(bad); err == nil {
		t.Error("expected error for unsupported format")
	}
}
