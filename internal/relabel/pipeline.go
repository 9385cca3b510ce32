package relabel

import (
	"errors"
	"fmt"
	"io"
)

// Point is the view of a point record the pipeline needs.
type Point interface {
	Classification() uint8
	SetClassification(c uint8) error
	MaxClassification() uint8
}

// PointSource yields points in file order. ReadNext returns io.EOF after
// the last point.
type PointSource interface {
	DeclaredPointCount() int64
	ReadNext() (Point, error)
	Close() error
}

// PointSink receives points in order and keeps the inventory used to
// finalize the output.
type PointSink interface {
	Write(p Point) error
	AccountFor(p Point)
	PointsWritten() int64
	// Finalize merges the inventory with src's header.
	Finalize(src PointSource) error
	// Close flushes and returns the total bytes written.
	Close() (int64, error)
	// Abort releases the sink without finalizing and discards its output.
	Abort() error
}

// OverflowPolicy decides what happens to a label the point format cannot
// store.
type OverflowPolicy int

const (
	// OverflowReject fails the run.
	OverflowReject OverflowPolicy = iota
	// OverflowClamp saturates to the largest storable class.
	OverflowClamp
)

// PipelineStats describes one pass over the point stream.
type PipelineStats struct {
	PointsRead        int64
	Labeled           int64 // classification was 0 and took the label
	AlreadyClassified int64 // classification was kept
	Clamped           int64
	// Classes counts output classifications.
	Classes [256]int64
}

// Pipeline merges labels into point classifications.
type Pipeline struct {
	Overflow OverflowPolicy
}

// Run reads every point from src, sets its classification to the label at
// the same index when the point is unclassified, and forwards it to sink.
// A point that already carries a classification is passed through
// unchanged. The number of labels, the declared point count and the number
// of points read must all agree, otherwise a *CountMismatchError is
// returned. Run never finalizes the sink.
func (p *Pipeline) Run(src PointSource, labels []uint32, sink PointSink) (PipelineStats, error) {
	var stats PipelineStats

	declared := src.DeclaredPointCount()
	if int64(len(labels)) != declared {
		return stats, &CountMismatchError{Stage: StageLabels, Expected: declared, Got: int64(len(labels))}
	}

	var idx int64
	for {
		pt, err := src.ReadNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.PointsRead = idx
			return stats, fmt.Errorf("%w: reading point %d: %v", ErrIO, idx, err)
		}
		if idx >= int64(len(labels)) {
			stats.PointsRead = idx
			return stats, &CountMismatchError{Stage: StagePoints, Expected: declared, Got: idx + 1}
		}

		if current := pt.Classification(); current == 0 {
			class, err := p.narrow(labels[idx], pt.MaxClassification(), idx, &stats)
			if err != nil {
				stats.PointsRead = idx
				return stats, err
			}
			if err := pt.SetClassification(class); err != nil {
				stats.PointsRead = idx
				return stats, fmt.Errorf("%w: point %d: %v", ErrClassificationOverflow, idx, err)
			}
			stats.Labeled++
		} else {
			if stats.AlreadyClassified == 0 {
				diagf("Point %d already labeled to %d, keeping existing classifications", idx, current)
			}
			tracef("Point %d already labeled to %d", idx, current)
			stats.AlreadyClassified++
		}

		if err := sink.Write(pt); err != nil {
			stats.PointsRead = idx
			return stats, fmt.Errorf("%w: writing point %d: %v", ErrIO, idx, err)
		}
		sink.AccountFor(pt)
		stats.Classes[pt.Classification()]++
		idx++
	}
	stats.PointsRead = idx

	if idx != declared {
		return stats, &CountMismatchError{Stage: StagePoints, Expected: declared, Got: idx}
	}
	if stats.AlreadyClassified > 0 {
		diagf("%d of %d points were already labeled and kept their classification", stats.AlreadyClassified, idx)
	}
	return stats, nil
}

// narrow converts a 32-bit label to a class the point can store.
func (p *Pipeline) narrow(label uint32, maxClass uint8, idx int64, stats *PipelineStats) (uint8, error) {
	if label <= uint32(maxClass) {
		return uint8(label), nil
	}
	if p.Overflow != OverflowClamp {
		return 0, fmt.Errorf("%w: label %d at point %d exceeds maximum class %d", ErrClassificationOverflow, label, idx, maxClass)
	}
	if stats.Clamped == 0 {
		opsf("label %d at point %d exceeds maximum class %d; clamping", label, idx, maxClass)
	}
	stats.Clamped++
	return maxClass, nil
}
