package pipeline

// State is a step of a Generate call, logged as it happens.
type State string

const (
	KeyDerived   State = "KEY_DERIVED"
	LockAcquired State = "LOCK_ACQUIRED"
	CacheHit     State = "CACHE_HIT"
	Fetch        State = "FETCH"
	Merge        State = "MERGE"
	Cleanup      State = "CLEANUP"
	LockReleased State = "LOCK_RELEASED"
	Done         State = "DONE"

	NoTilesAvailable State = "NO_TILES_AVAILABLE"
	MergeFailed      State = "MERGE_FAILED"
	DiskFull         State = "DISK_FULL"
)

// Failed reports whether s is a terminal failure.
func (s State) Failed() bool {
	return s == NoTilesAvailable || s == MergeFailed || s == DiskFull
}
