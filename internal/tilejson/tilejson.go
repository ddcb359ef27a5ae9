package tilejson

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
)

// TileJSON represents a tile.json
type TileJSON struct {
	TileJSON    string     `json:"tilejson"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Scheme      string     `json:"scheme"`
	Encoding    string     `json:"encoding,omitempty"`
	Tiles       []string   `json:"tiles"`
	Minzoom     uint8      `json:"minzoom"`
	Maxzoom     uint8      `json:"maxzoom"`
	Bounds      [4]float64 `json:"bounds"`
	Center      [3]float64 `json:"center"`
}

// New describes an XYZ tile set covering bound.
func New(name, description string, maxLod uint8, bound orb.Bound) TileJSON {
	center := bound.Center()
	return TileJSON{
		TileJSON:    "2.2.0",
		Name:        name,
		Description: description,
		Scheme:      "xyz",
		Tiles:       []string{"{z}/{x}/{y}.png"},
		Minzoom:     0,
		Maxzoom:     maxLod,
		Bounds:      [4]float64{bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()},
		Center:      [3]float64{center.X(), center.Y(), 0},
	}
}

// Write a tile.json into outputDirectory
func Write(outputDirectory string, obj TileJSON) error {
	bytes, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(outputDirectory, "tile.json"), bytes, 0o644)
}

// Read a tile.json from path
func Read(path string) (TileJSON, error) {
	var obj TileJSON

	bytes, err := os.ReadFile(path)
	if err != nil {
		return obj, err
	}

	err = json.Unmarshal(bytes, &obj)
	return obj, err
}
