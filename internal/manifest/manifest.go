package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gruppe-adler/demcache/internal/dem"
	"github.com/gruppe-adler/demcache/internal/geo"
)

// Manifest describes how a cache artifact was built. It is written next to
// the artifact as <artifact>.json.
type Manifest struct {
	Key          string          `json:"key"`
	Box          geo.BoundingBox `json:"bbox"`
	Buffer       float64         `json:"buffer"`
	Grid         dem.Header      `json:"grid"`
	Tiles        []string        `json:"tiles"`
	MissingTiles []string        `json:"missingTiles,omitempty"`
	Size         int64           `json:"size"`
	BuiltAt      time.Time       `json:"builtAt"`
	BuildTime    Duration        `json:"buildTime"`
}

// Duration marshals as a Go duration string, e.g. "1m30s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Read manifest from given path
func Read(path string) (Manifest, error) {
	var val Manifest

	b, err := os.ReadFile(path)
	if err != nil {
		return val, err
	}

	if err := json.Unmarshal(b, &val); err != nil {
		return val, fmt.Errorf("%s: %w", path, err)
	}

	return val, nil
}

// Write stores m at path through a temp file and rename.
func Write(path string, m Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
