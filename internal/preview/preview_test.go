package preview

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gruppe-adler/demcache/internal/dem"
)

func TestImage(t *testing.T) {
	g := dem.NewGrid(3, 1, dem.NewGeotransform(0, 1, 1, -1), -9999)
	g.Set(0, 0, 100)
	g.Set(1, 0, 300)

	img := Image(g)
	if c := img.NRGBAAt(0, 0); c.R != 0 || c.A != 255 {
		t.Errorf("lowest sample should be black, got %v", c)
	}
	if c := img.NRGBAAt(1, 0); c.R != 255 {
		t.Errorf("highest sample should be white, got %v", c)
	}
	if c := img.NRGBAAt(2, 0); c.A != 0 {
		t.Errorf("void should be transparent, got %v", c)
	}
}

func TestImageAllVoid(t *testing.T) {
	g := dem.NewGrid(2, 2, dem.NewGeotransform(0, 1, 2, -1), -9999)
	if c := Image(g).NRGBAAt(1, 1); c.A != 0 {
		t.Errorf("expected transparent image, got %v", c)
	}
}

func TestWrite(t *testing.T) {
	g := dem.NewGrid(40, 20, dem.NewGeotransform(0, 1, 20, -1), -9999)
	for i := range g.Data {
		g.Data[i] = float32(i)
	}
	dir := t.TempDir()

	if err := Write(Image(g), dir); err != nil {
		t.Fatal(err)
	}

	for _, size := range sizes {
		f, err := os.Open(filepath.Join(dir, fmt.Sprintf("preview_%d.png", size)))
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != int(size) || cfg.Height != int(size)/2 {
			t.Errorf("preview_%d is %dx%d", size, cfg.Width, cfg.Height)
		}
	}
}
