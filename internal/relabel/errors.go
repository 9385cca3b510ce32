package relabel

import (
	"errors"
	"fmt"
)

var (
	// ErrIO covers failures to open, read or write the label file and the
	// point clouds.
	ErrIO = errors.New("relabel: i/o error")
	// ErrConfig covers a missing or malformed definition document and
	// inconsistent remap settings.
	ErrConfig = errors.New("relabel: configuration error")
	// ErrCountMismatch is returned when labels, declared points and
	// consumed points disagree. Use errors.As with *CountMismatchError for
	// the numbers.
	ErrCountMismatch = errors.New("relabel: count mismatch")
	// ErrUnmappedLabel is returned in UnmappedFail mode for a raw label with
	// no remap entry.
	ErrUnmappedLabel = errors.New("relabel: unmapped label")
	// ErrClassificationOverflow is returned in OverflowReject mode for a
	// label that the point format cannot store.
	ErrClassificationOverflow = errors.New("relabel: classification out of range")
)

// CountMismatchError reports which cardinality check failed.
type CountMismatchError struct {
	Stage    string // "labels" or "points"
	Expected int64
	Got      int64
}

func (e *CountMismatchError) Error() string {
	switch e.Stage {
	case StageLabels:
		return fmt.Sprintf("number of labels (%d) does not match number of points (%d)", e.Got, e.Expected)
	case StagePoints:
		return fmt.Sprintf("number of points read (%d) does not match number of points (%d)", e.Got, e.Expected)
	}
	return fmt.Sprintf("%s count %d does not match expected %d", e.Stage, e.Got, e.Expected)
}

// Unwrap lets errors.Is match ErrCountMismatch.
func (e *CountMismatchError) Unwrap() error { return ErrCountMismatch }

// Count check stages.
const (
	StageLabels = "labels"
	StagePoints = "points"
)
