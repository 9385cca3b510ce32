package las

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrWriterClosed is returned by operations on a closed or aborted Writer.
var ErrWriterClosed = errors.New("las: writer is closed")

// Writer writes point records behind a copy of a source header. The header
// counts and extent are rewritten on Close from the inventory, but only if
// UpdateHeader was called; otherwise the template is written back as-is and
// the file is left unfinalized.
type Writer struct {
	path      string
	file      *os.File
	w         *bufio.Writer
	header    *Header
	inventory Inventory

	bytes     int64
	finalized bool
	closed    bool
	complete  bool // Close succeeded
}

// Create truncates path and writes the header and VLR block of template.
func Create(path string, template *Header) (*Writer, error) {
	if template == nil {
		return nil, errors.New("las: nil header template")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := &Writer{
		path:   path,
		file:   f,
		w:      bufio.NewWriterSize(f, readBufferSize),
		header: template.Clone(),
	}
	n, err := w.w.Write(w.header.raw)
	w.bytes += int64(n)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write header to %s: %w", path, err)
	}
	return w, nil
}

// WritePoint appends one record. The record format must match the header.
func (w *Writer) WritePoint(p *Point) error {
	if w.closed {
		return ErrWriterClosed
	}
	if p.format != w.header.PointFormat || len(p.data) != int(w.header.PointRecordLength) {
		return fmt.Errorf("las: point format %d/%d bytes does not match header %d/%d",
			p.format, len(p.data), w.header.PointFormat, w.header.PointRecordLength)
	}
	n, err := w.w.Write(p.data)
	w.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("write point to %s: %w", w.path, err)
	}
	return nil
}

// UpdateInventory accounts for a written point.
func (w *Writer) UpdateInventory(p *Point) {
	w.inventory.Add(p)
}

// Inventory returns the statistics accumulated so far.
func (w *Writer) Inventory() Inventory { return w.inventory }

// UpdateHeader merges the inventory into a copy of source and makes it the
// header written on Close. source supplies the non-volatile fields; pass the
// reader's header.
func (w *Writer) UpdateHeader(source *Header, updateExtent bool) error {
	if w.closed {
		return ErrWriterClosed
	}
	if source != nil {
		if source.PointFormat != w.header.PointFormat || len(source.raw) != len(w.header.raw) {
			return errors.New("las: source header layout differs from the writer's")
		}
		w.header = source.Clone()
	}
	w.inventory.Apply(w.header, updateExtent)
	w.finalized = true
	return nil
}

// Finalized reports whether UpdateHeader has been called.
func (w *Writer) Finalized() bool { return w.finalized }

// Close flushes the records, rewrites the header and returns the total
// number of bytes in the file.
func (w *Writer) Close() (int64, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	w.closed = true

	if err := w.w.Flush(); err != nil {
		w.file.Close()
		return 0, fmt.Errorf("flush %s: %w", w.path, err)
	}
	if w.finalized {
		if _, err := w.file.WriteAt(w.header.encode(), 0); err != nil {
			w.file.Close()
			return 0, fmt.Errorf("rewrite header of %s: %w", w.path, err)
		}
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return 0, fmt.Errorf("sync %s: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", w.path, err)
	}
	w.complete = true
	return w.bytes, nil
}

// Abort closes the file without finalizing it and removes it. It is a no-op
// after a successful Close, and still removes the file after a failed one.
func (w *Writer) Abort() error {
	if w.complete {
		return nil
	}
	var closeErr error
	if !w.closed {
		w.closed = true
		w.w.Reset(io.Discard)
		closeErr = w.file.Close()
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", w.path, err)
	}
	return closeErr
}
