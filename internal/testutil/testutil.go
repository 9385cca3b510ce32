// Package testutil provides shared test fixtures: small LAS files and label
// files written to a test's temp directory.
package testutil

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/banshee-data/setlabel/internal/las"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// WriteLASFile writes one point per entry of classes, in LAS 1.2 for legacy
// formats and 1.4 for extended ones. Point i sits at (i, 2i, 3i) in raw
// units with return number 1.
func WriteLASFile(t *testing.T, path string, format uint8, classes []uint8) {
	t.Helper()
	minor := uint8(2)
	if format >= 6 {
		minor = 4
	}
	h, err := las.NewHeader(minor, format, 0, "testutil")
	AssertNoError(t, err)
	w, err := las.Create(path, h)
	AssertNoError(t, err)
	for i, c := range classes {
		p := las.NewPoint(h.PointFormat, h.PointRecordLength)
		p.SetXYZ(int32(i), int32(2*i), int32(3*i))
		p.SetReturnNumber(1)
		AssertNoError(t, p.SetClassification(c))
		AssertNoError(t, w.WritePoint(p))
		w.UpdateInventory(p)
	}
	AssertNoError(t, w.UpdateHeader(nil, true))
	_, err = w.Close()
	AssertNoError(t, err)
}

// WriteLabelFile writes labels as little-endian uint32s.
func WriteLabelFile(t *testing.T, path string, labels []uint32) {
	t.Helper()
	AssertNoError(t, os.WriteFile(path, LabelBytes(labels), 0o644))
}

// LabelBytes encodes labels as little-endian uint32s.
func LabelBytes(labels []uint32) []byte {
	buf := make([]byte, 4*len(labels))
	for i, l := range labels {
		binary.LittleEndian.PutUint32(buf[4*i:], l)
	}
	return buf
}

// ReadClassifications returns the classification of every point in path
// along with the file's header.
func ReadClassifications(t *testing.T, path string) ([]uint8, *las.Header) {
	t.Helper()
	r, err := las.Open(path)
	AssertNoError(t, err)
	defer r.Close()

	var classes []uint8
	for {
		p, err := r.ReadPoint()
		if errors.Is(err, io.EOF) {
			break
		}
		AssertNoError(t, err)
		classes = append(classes, p.Classification())
	}
	return classes, r.Header()
}
