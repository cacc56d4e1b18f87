package export

import "fmt"

// SkipReason explains why a per-item stage produced no value.
type SkipReason int

const (
	Resolved SkipReason = iota
	// SkipUnused marks an empty reference (a zero texture slot).
	SkipUnused
	// SkipUnresolved marks a reference with no known file identifier.
	SkipUnresolved
	// SkipFailed marks an item whose fetch, conversion or write failed.
	SkipFailed
)

func (r SkipReason) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case SkipUnused:
		return "unused"
	case SkipUnresolved:
		return "unresolved"
	case SkipFailed:
		return "failed"
	}
	return fmt.Sprintf("SkipReason(%d)", int(r))
}

// Result is the outcome of one item of a stage: either a value or a reason
// it was skipped. Skips never abort the surrounding stage.
type Result[T any] struct {
	Value  T
	Reason SkipReason
	Err    error
}

// OK reports whether the item produced a value.
func (r Result[T]) OK() bool {
	return r.Reason == Resolved
}

func resolved[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func skipped[T any](reason SkipReason, err error) Result[T] {
	return Result[T]{Reason: reason, Err: err}
}
