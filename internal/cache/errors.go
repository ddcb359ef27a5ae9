package cache

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrUnsafeCacheRoot is returned by Clear when the root isn't inside the safe prefix.
	ErrUnsafeCacheRoot = errors.New("refusing to clear unsafe cache directory")

	// ErrInsufficientDiskSpace is returned by the pre-flight space check.
	ErrInsufficientDiskSpace = errors.New("insufficient disk space")
)

// DiskSpaceError reports how much space a build was estimated to need.
type DiskSpaceError struct {
	Path      string
	Needed    uint64
	Available uint64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("%s: %s needed, %s available on %s",
		ErrInsufficientDiskSpace, humanize.IBytes(e.Needed), humanize.IBytes(e.Available), e.Path)
}

func (e *DiskSpaceError) Is(target error) bool {
	return target == ErrInsufficientDiskSpace
}
