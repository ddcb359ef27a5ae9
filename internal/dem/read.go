package dem

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile decodes an elevation tile. The format follows the file name:
// .asc (ESRI ASCII grid) or .hgt (SRTM), optionally wrapped in .gz or .zip.
func ReadFile(path string) (*Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		return decode(strings.TrimSuffix(name, ".gz"), gz)

	case strings.HasSuffix(name, ".zip"):
		stat, err := file.Stat()
		if err != nil {
			return nil, err
		}
		z, err := zip.NewReader(file, stat.Size())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, f := range z.File {
			if strings.HasPrefix(filepath.Base(f.Name), ".") || f.FileInfo().IsDir() {
				continue
			}
			r, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			defer r.Close()
			return decode(strings.ToLower(f.Name), r)
		}
		return nil, fmt.Errorf("%s: archive holds no tile", path)

	default:
		return decode(name, file)
	}
}

func decode(name string, r io.Reader) (*Grid, error) {
	switch {
	case strings.HasSuffix(name, ".asc"):
		g, err := ParseEsriASCIIRaster(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return g, nil

	case strings.HasSuffix(name, ".hgt"):
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return ParseHGT(name, buf.Bytes())

	default:
		return nil, fmt.Errorf("%s: unsupported raster format", name)
	}
}
