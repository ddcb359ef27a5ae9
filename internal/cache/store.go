package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gruppe-adler/demcache/internal/geo"
	"github.com/gruppe-adler/demcache/internal/utils"
)

const (
	artifactDir = "dem_cache"
	stagingDir  = "localdem"
	artifactExt = ".raw"
	lockExt     = ".lock"
)

// DefaultRoot is used when no cache root is configured.
func DefaultRoot() string {
	return filepath.Join(os.TempDir(), "terrain")
}

// Entry describes one cached artifact.
type Entry struct {
	Key      Key
	Path     string
	LockPath string
}

// Store owns the on-disk cache. It is the only component that deletes
// cache files. Clear and Usage are not coordinated with running builds.
type Store struct {
	root string
}

// NewStore creates a store rooted at root, DefaultRoot if empty. Clear only
// works if root lies strictly inside the system temp directory.
func NewStore(root string) *Store {
	if root == "" {
		root = DefaultRoot()
	}
	return &Store{root: filepath.Clean(root)}
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

// KeyFor derives the key for box expanded by buffer degrees.
func (s *Store) KeyFor(box geo.BoundingBox, buffer float64) Key {
	return KeyFor(box, buffer)
}

func (s *Store) artifactPath(key Key) string {
	return filepath.Join(s.root, artifactDir, string(key)+artifactExt)
}

// PathFor returns the artifact path for key, creating its directory.
func (s *Store) PathFor(key Key) (string, error) {
	if err := os.MkdirAll(filepath.Join(s.root, artifactDir), 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return s.artifactPath(key), nil
}

// LockPath returns the advisory lock file for key.
func (s *Store) LockPath(key Key) string {
	return s.artifactPath(key) + lockExt
}

// ManifestPath returns the JSON sidecar path for key.
func (s *Store) ManifestPath(key Key) string {
	return s.artifactPath(key) + ".json"
}

// Exists reports whether a finished artifact is present for key.
func (s *Store) Exists(key Key) bool {
	return utils.IsFile(s.artifactPath(key))
}

// Entry returns the paths belonging to key, creating the artifact directory
// like PathFor.
func (s *Store) Entry(key Key) (Entry, error) {
	path, err := s.PathFor(key)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: key, Path: path, LockPath: s.LockPath(key)}, nil
}

// StagingDir returns a fresh directory for downloading tiles of key.
func (s *Store) StagingDir(key Key) (string, error) {
	dir := filepath.Join(s.root, stagingDir, string(key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	return dir, nil
}

// RemoveStaging deletes the tile staging directory of key.
func (s *Store) RemoveStaging(key Key) error {
	return os.RemoveAll(filepath.Join(s.root, stagingDir, string(key)))
}

// Clear deletes the entire cache root.
func (s *Store) Clear() error {
	if prefix := os.TempDir(); !confined(s.root, prefix) {
		return fmt.Errorf("%w: %s is not inside %s", ErrUnsafeCacheRoot, s.root, prefix)
	}

	if !utils.IsDirectory(s.root) {
		slog.Info("cache directory does not exist", "root", s.root)
		return nil
	}
	if err := os.RemoveAll(s.root); err != nil {
		return err
	}
	slog.Info("cache directory cleared", "root", s.root)
	return nil
}

// ClearTiles deletes downloaded tiles, leaving finished artifacts alone.
func (s *Store) ClearTiles() error {
	dir := filepath.Join(s.root, stagingDir)
	if !utils.IsDirectory(dir) {
		slog.Info("local DEM tile cache not found", "dir", dir)
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	slog.Info("local DEM tile cache cleared", "dir", dir)
	return nil
}

// confined reports whether root lies strictly inside prefix. A filesystem
// root as prefix confines nothing.
func confined(root, prefix string) bool {
	root, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	prefix, err = filepath.Abs(prefix)
	if err != nil || prefix == filepath.Dir(prefix) {
		return false
	}
	rel, err := filepath.Rel(prefix, root)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Usage returns the total size of all files below the root.
func (s *Store) Usage() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("total cache usage", "root", s.root, "bytes", total, "size", humanize.Bytes(uint64(total)))
	return total, nil
}

// CheckSpace fails with a DiskSpaceError if fewer than needed bytes are
// free below the root. Platforms without free space reporting pass.
func (s *Store) CheckSpace(needed uint64) error {
	avail, ok, err := s.FreeSpace()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if avail < needed {
		return &DiskSpaceError{Path: s.root, Needed: needed, Available: avail}
	}
	return nil
}

// FreeSpace reports the bytes available below the root. ok is false if the
// platform can't tell.
func (s *Store) FreeSpace() (avail uint64, ok bool, err error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return 0, false, err
	}
	return freeSpace(s.root)
}
