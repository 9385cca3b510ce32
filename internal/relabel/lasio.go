package relabel

import (
	"fmt"

	"github.com/banshee-data/setlabel/internal/las"
)

// LASSource adapts a las.Reader to PointSource.
type LASSource struct {
	r *las.Reader
}

// OpenLASSource opens a LAS file for reading.
func OpenLASSource(path string) (*LASSource, error) {
	r, err := las.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open input: %v", ErrIO, err)
	}
	return &LASSource{r: r}, nil
}

// Header returns the source header.
func (s *LASSource) Header() *las.Header { return s.r.Header() }

// DeclaredPointCount returns the point count from the header.
func (s *LASSource) DeclaredPointCount() int64 { return int64(s.r.Header().PointCount) }

// ReadNext returns the next point or io.EOF.
func (s *LASSource) ReadNext() (Point, error) {
	p, err := s.r.ReadPoint()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Close closes the file.
func (s *LASSource) Close() error { return s.r.Close() }

// LASSink adapts a las.Writer to PointSink.
type LASSink struct {
	w *las.Writer
}

// CreateLASSink creates path with the header and VLRs of template.
func CreateLASSink(path string, template *las.Header) (*LASSink, error) {
	w, err := las.Create(path, template)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open output: %v", ErrIO, err)
	}
	return &LASSink{w: w}, nil
}

// Write appends p, which must have come from a LASSource.
func (s *LASSink) Write(p Point) error {
	lp, ok := p.(*las.Point)
	if !ok {
		return fmt.Errorf("LASSink cannot write %T", p)
	}
	return s.w.WritePoint(lp)
}

// AccountFor adds p to the inventory.
func (s *LASSink) AccountFor(p Point) {
	if lp, ok := p.(*las.Point); ok {
		s.w.UpdateInventory(lp)
	}
}

// PointsWritten returns the inventory count.
func (s *LASSink) PointsWritten() int64 {
	return int64(s.w.Inventory().Count)
}

// Finalize merges the inventory into src's header and recomputes the extent.
func (s *LASSink) Finalize(src PointSource) error {
	hs, ok := src.(interface{ Header() *las.Header })
	if !ok {
		return fmt.Errorf("LASSink cannot take a header from %T", src)
	}
	return s.w.UpdateHeader(hs.Header(), true)
}

// Close writes the header and returns the file size.
func (s *LASSink) Close() (int64, error) { return s.w.Close() }

// Abort removes the unfinalized output.
func (s *LASSink) Abort() error { return s.w.Abort() }
