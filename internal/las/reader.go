package las

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const readBufferSize = 64 * 1024

// Reader streams point records in file order. The *Point returned by
// ReadPoint is reused on the next call.
type Reader struct {
	header *Header
	r      *bufio.Reader
	closer io.Closer
	point  *Point
	read   uint64
}

// Open opens a LAS file for sequential reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	r, err := newReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader decodes the header and VLR block from r and positions it at the
// first point record.
func NewReader(r io.Reader) (*Reader, error) {
	return newReader(r, -1)
}

// newReader is NewReader with a known input size; size < 0 means unknown.
func newReader(r io.Reader, size int64) (*Reader, error) {
	br := bufio.NewReaderSize(r, readBufferSize)

	prefix := make([]byte, HEADER_SIZE_12)
	if _, err := io.ReadFull(br, prefix); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file shorter than a header", ErrNotLAS)
		}
		return nil, err
	}
	if string(prefix[:4]) != SIGNATURE {
		return nil, ErrNotLAS
	}

	dataOffset := binary.LittleEndian.Uint32(prefix[OFFSET_POINT_DATA:])
	if dataOffset < HEADER_SIZE_12 {
		return nil, fmt.Errorf("las: point data offset %d inside header", dataOffset)
	}
	if size >= 0 && int64(dataOffset) > size {
		return nil, fmt.Errorf("las: point data offset %d beyond end of file (%d bytes)", dataOffset, size)
	}
	// The offset is untrusted, so the VLR block grows with the bytes
	// actually present.
	buf := bytes.NewBuffer(prefix)
	if _, err := io.CopyN(buf, br, int64(dataOffset)-HEADER_SIZE_12); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("las: reading header and VLRs: %w", err)
	}
	prefix = buf.Bytes()

	h, err := ParseHeader(prefix)
	if err != nil {
		return nil, err
	}
	return &Reader{
		header: h,
		r:      br,
		point:  NewPoint(h.PointFormat, h.PointRecordLength),
	}, nil
}

// Header returns the decoded source header.
func (r *Reader) Header() *Header { return r.header }

// PointsRead returns the number of records returned so far.
func (r *Reader) PointsRead() uint64 { return r.read }

// ReadPoint returns the next record, or io.EOF once the declared count has
// been read or the file ends on a record boundary. A partial trailing
// record is an error.
func (r *Reader) ReadPoint() (*Point, error) {
	if r.read >= r.header.PointCount {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(r.r, r.point.data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("las: point %d: %w", r.read, err)
	}
	r.read++
	return r.point, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
