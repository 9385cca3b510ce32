package relabel

import "fmt"

// FinalizeResult is what the finalizer reports once the output is closed.
type FinalizeResult struct {
	PointsWritten int64
	BytesWritten  int64
}

// Finalize merges the sink's inventory into the source header, closes the
// sink and reports its totals. Call it only after Pipeline.Run succeeded.
// Failures are not retried.
func Finalize(sink PointSink, src PointSource) (FinalizeResult, error) {
	if err := sink.Finalize(src); err != nil {
		return FinalizeResult{}, fmt.Errorf("%w: updating output header: %v", ErrIO, err)
	}
	points := sink.PointsWritten()
	bytes, err := sink.Close()
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("%w: closing output: %v", ErrIO, err)
	}
	diagf("finalized output: %d bytes for %d points", bytes, points)
	return FinalizeResult{PointsWritten: points, BytesWritten: bytes}, nil
}
