// Package dagerr collects the error kinds surfaced by the pools, the
// editor engine, and the garbage collector. Every recoverable error is
// returned to the caller rather than panicking; InvalidEditor is the one
// exception, since the spec treats a misbehaving Editor as a programmer
// bug rather than a recoverable condition.
package dagerr

import "github.com/cockroachdb/errors"

// Sentinels usable with errors.Is.
var (
	// ErrOutOfBuckets is returned when a NodePool upsert cannot append to
	// its target bucket because the bucket's word capacity is exhausted.
	ErrOutOfBuckets = errors.New("dagerr: bucket out of capacity")

	// ErrOutOfPages is returned when a ColorPool paged vector cannot
	// append because its backing page range is exhausted.
	ErrOutOfPages = errors.New("dagerr: paged vector out of capacity")

	// ErrInvalidConfig is returned at pool construction time when a
	// configuration struct fails validation.
	ErrInvalidConfig = errors.New("dagerr: invalid configuration")

	// ErrEditInFlight is returned by the GC when it cannot claim the
	// submission queue because an edit is outstanding.
	ErrEditInFlight = errors.New("dagerr: edit in flight")
)

// OutOfBuckets wraps ErrOutOfBuckets with the level and bucket that
// overflowed.
func OutOfBuckets(level, bucket int) error {
	return errors.Wrapf(ErrOutOfBuckets, "level %d bucket %d", level, bucket)
}

// OutOfPages wraps ErrOutOfPages with the pool name that overflowed.
func OutOfPages(pool string, needed, capacity int) error {
	return errors.Wrapf(ErrOutOfPages, "%s: need %d words, capacity %d", pool, needed, capacity)
}

// InvalidConfig wraps ErrInvalidConfig with the offending detail.
func InvalidConfig(reason string) error {
	return errors.Wrapf(ErrInvalidConfig, "%s", reason)
}

// InvalidEditorPanic is raised (via panic, never returned) when an Editor
// implementation violates its contract, e.g. returning Fill at the voxel
// level. It is deliberately not a normal error value: spec.md treats this
// as a bug in the caller's Editor, not a recoverable runtime condition.
type InvalidEditorPanic struct {
	Reason string
}

func (p InvalidEditorPanic) Error() string {
	return "dagerr: invalid editor: " + p.Reason
}
