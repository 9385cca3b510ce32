package relabel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/setlabel/internal/fsutil"
)

// LABEL_SIZE is the on-disk size of one label.
const LABEL_SIZE = 4

// LabelSizePolicy decides what happens to a label file whose size is not a
// multiple of LABEL_SIZE.
type LabelSizePolicy int

const (
	// LabelSizeReject fails the load.
	LabelSizeReject LabelSizePolicy = iota
	// LabelSizeTruncate drops the trailing partial label.
	LabelSizeTruncate
)

// LoadLabels reads a headerless little-endian uint32 array from path. Entry
// i is the label of the i-th point in read order. Any open or read failure
// wraps ErrIO; the caller must abort rather than carry on with no labels.
func LoadLabels(fsys fsutil.FileSystem, path string, policy LabelSizePolicy) ([]uint32, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open label file: %v", ErrIO, err)
	}
	size := info.Size()
	if rem := size % LABEL_SIZE; rem != 0 {
		if policy != LabelSizeTruncate {
			return nil, fmt.Errorf("%w: label file %s is %d bytes, not a multiple of %d", ErrIO, path, size, LABEL_SIZE)
		}
		opsf("label file %s is %d bytes; ignoring trailing %d bytes", path, size, rem)
	}
	n := size / LABEL_SIZE

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open label file: %v", ErrIO, err)
	}
	defer f.Close()

	labels, err := decodeLabels(bufio.NewReaderSize(f, 64*1024), n)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
	}
	diagf("Load %d labels from %s", len(labels), path)
	return labels, nil
}

// decodeLabels reads exactly n labels from r.
func decodeLabels(r io.Reader, n int64) ([]uint32, error) {
	labels := make([]uint32, n)
	var buf [LABEL_SIZE]byte
	for i := range labels {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("label %d: %w", i, err)
		}
		labels[i] = binary.LittleEndian.Uint32(buf[:])
	}
	return labels, nil
}

// EncodeLabels is the inverse of LoadLabels' decoding, used to produce label
// files.
func EncodeLabels(w io.Writer, labels []uint32) error {
	bw := bufio.NewWriter(w)
	var buf [LABEL_SIZE]byte
	for _, l := range labels {
		binary.LittleEndian.PutUint32(buf[:], l)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
