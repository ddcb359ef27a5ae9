package mosaic

import (
	"errors"
	"fmt"
)

// ErrMergeFailed matches every MergeError.
var ErrMergeFailed = errors.New("merge failed")

// MergeError reports which input (if any) broke the merge.
type MergeError struct {
	Path string
	Err  error
}

func (e *MergeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("merge failed: %v", e.Err)
	}
	return fmt.Sprintf("merge failed on %s: %v", e.Path, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

func (e *MergeError) Is(target error) bool { return target == ErrMergeFailed }
