package tiles

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gruppe-adler/demcache/internal/geo"
)

// DefaultBaseURL is the AWS Terrain Tiles "skadi" bucket (SRTM-derived
// 1 arc second HGT tiles, gzip compressed).
const DefaultBaseURL = "https://elevation-tiles-prod.s3.amazonaws.com/skadi/"

// DefaultPattern lays tiles out as N34/N34W119.hgt.gz.
const DefaultPattern = "{ns}{lat}/{stem}.hgt.gz"

// Tile is one remote raster and, once fetched, its local copy.
type Tile struct {
	Cell      geo.Cell
	SourceURL string
	LocalPath string
}

// Catalog maps bounding boxes to remote tile URLs. Tile paths are built
// from Pattern, where {ns}, {lat}, {ew}, {lon} and {stem} expand to e.g.
// N, 34, W, 119 and N34W119.
type Catalog struct {
	BaseURL string
	Pattern string
	// Index restricts the catalog to tiles it lists. nil means every cell
	// is assumed to exist.
	Index Index
}

// NewCatalog returns a catalog with defaults for empty arguments.
func NewCatalog(baseURL, pattern string, index Index) (*Catalog, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Catalog{BaseURL: baseURL, Pattern: pattern, Index: index}, nil
}

// Name returns the catalog-relative path of a tile.
func (c *Catalog) Name(cell geo.Cell) string {
	stem := cell.Stem()
	return strings.NewReplacer(
		"{ns}", stem[0:1],
		"{lat}", stem[1:3],
		"{ew}", stem[3:4],
		"{lon}", stem[4:7],
		"{stem}", stem,
	).Replace(c.Pattern)
}

// URLFor returns the absolute URL of a tile.
func (c *Catalog) URLFor(cell geo.Cell) string {
	return c.BaseURL + c.Name(cell)
}

// TilesFor lists the tiles intersecting box in south-west to north-east order.
func (c *Catalog) TilesFor(box geo.BoundingBox) []Tile {
	var tiles []Tile
	for _, cell := range geo.CellsFor(box) {
		if c.Index != nil && !c.Index.Has(cell) {
			continue
		}
		tiles = append(tiles, Tile{Cell: cell, SourceURL: c.URLFor(cell)})
	}
	return tiles
}

// TileURLsFor lists the URLs of the tiles intersecting box.
func (c *Catalog) TileURLsFor(box geo.BoundingBox) []string {
	tiles := c.TilesFor(box)
	urls := make([]string, len(tiles))
	for i, t := range tiles {
		urls[i] = t.SourceURL
	}
	return urls
}
