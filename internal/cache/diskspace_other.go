//go:build !linux && !darwin && !freebsd

package cache

func freeSpace(string) (uint64, bool, error) {
	return 0, false, nil
}
