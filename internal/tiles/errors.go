package tiles

import (
	"errors"
	"fmt"
)

// ErrNoTilesAvailable means no tile of a region could be fetched.
var ErrNoTilesAvailable = errors.New("no DEM tiles available for the specified area")

// DownloadError is the failure of a single tile. It never fails a request
// on its own.
type DownloadError struct {
	URL string
	// Status is the HTTP status code, or 0 if no response arrived.
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to download %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// NotFound reports whether the catalog simply doesn't have the tile.
func (e *DownloadError) NotFound() bool {
	return e.Status == 404 || e.Status == 403
}
