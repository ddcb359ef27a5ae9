package tiles

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gruppe-adler/demcache/internal/geo"
)

// Index is the set of tiles a remote catalog actually has. Ocean cells are
// usually missing, so consulting it saves a request per absent tile.
type Index map[geo.Cell]struct{}

// Has reports whether cell is listed.
func (i Index) Has(cell geo.Cell) bool {
	_, ok := i[cell]
	return ok
}

// ParseIndex reads one tile name per line. Lines without a recognisable
// tile name are skipped.
func ParseIndex(r io.Reader) (Index, error) {
	index := Index{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if cell, ok := geo.ParseCell(line); ok {
			index[cell] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return index, nil
}

// LoadIndex reads an index from an http(s) URL or a local file.
func LoadIndex(ctx context.Context, client *http.Client, location string) (Index, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		f, err := os.Open(location)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseIndex(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tile index %s: %s", location, resp.Status)
	}
	return ParseIndex(resp.Body)
}
