package las

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestFile writes n points of the given format with X=i*100, Y=-i*100,
// Z=i and return number 1 or 2 alternating.
func writeTestFile(t *testing.T, path string, versionMinor, format uint8, n int) *Header {
	t.Helper()
	h, err := NewHeader(versionMinor, format, 0, "test")
	require.NoError(t, err)

	w, err := Create(path, h)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		p := NewPoint(h.PointFormat, h.PointRecordLength)
		p.SetXYZ(int32(i*100), int32(-i*100), int32(i))
		p.SetReturnNumber(uint8(i%2 + 1))
		require.NoError(t, w.WritePoint(p))
		w.UpdateInventory(p)
	}
	require.NoError(t, w.UpdateHeader(nil, true))
	_, err = w.Close()
	require.NoError(t, err)
	return h
}

func TestRoundTrip_LegacyFormat(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "legacy.las")
	writeTestFile(t, path, 2, 1, 5)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	assert.Equal(t, uint64(5), h.PointCount)
	assert.Equal(t, uint64(3), h.PointsByReturn[0])
	assert.Equal(t, uint64(2), h.PointsByReturn[1])
	assert.Equal(t, uint16(HEADER_SIZE_12), h.HeaderSize)
	assert.Equal(t, "test", h.GeneratingSoftware)
	assert.InDelta(t, 4.0, h.Max[0], 1e-9)
	assert.InDelta(t, -4.0, h.Min[1], 1e-9)
	assert.InDelta(t, 0.04, h.Max[2], 1e-9)

	count := 0
	for {
		p, err := r.ReadPoint()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, int32(count*100), p.X())
		count++
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, uint64(5), r.PointsRead())
}

func TestRoundTrip_ExtendedFormat(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "extended.las")
	writeTestFile(t, path, 4, 6, 3)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	h := r.Header()
	assert.True(t, h.Extended())
	assert.Equal(t, uint64(3), h.PointCount)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// Legacy count must be zero for formats 6-10.
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(raw[OFFSET_LEGACY_POINT_COUNT:]))
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(raw[OFFSET_POINT_COUNT:]))
}

func TestWriterClose_ReportsFileSize(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "size.las")
	h, err := NewHeader(2, 0, 0, "")
	require.NoError(t, err)

	w, err := Create(path, h)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		p := NewPoint(0, h.PointRecordLength)
		require.NoError(t, w.WritePoint(p))
		w.UpdateInventory(p)
	}
	require.NoError(t, w.UpdateHeader(h, true))
	total, err := w.Close()
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), total)
	assert.Equal(t, int64(HEADER_SIZE_12+4*20), total)

	_, err = w.Close()
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestWriterUnfinalized_KeepsTemplateCounts(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "unfinalized.las")
	h, err := NewHeader(2, 0, 0, "")
	require.NoError(t, err)

	w, err := Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(NewPoint(0, h.PointRecordLength)))
	assert.False(t, w.Finalized())
	_, err = w.Close()
	require.NoError(t, err)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint64(0), r.Header().PointCount)
}

func TestWriterAbort_RemovesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "aborted.las")
	h, err := NewHeader(2, 0, 0, "")
	require.NoError(t, err)

	w, err := Create(path, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoint(NewPoint(0, h.PointRecordLength)))
	require.NoError(t, w.Abort())

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.ErrorIs(t, w.WritePoint(NewPoint(0, h.PointRecordLength)), ErrWriterClosed)
}

func TestWritePoint_FormatMismatch(t *testing.T) {
	t.Parallel()
	h, err := NewHeader(2, 1, 0, "")
	require.NoError(t, err)
	w, err := Create(filepath.Join(t.TempDir(), "mismatch.las"), h)
	require.NoError(t, err)
	defer w.Abort()

	assert.Error(t, w.WritePoint(NewPoint(0, 20)))
}

func TestNewReader_Rejects(t *testing.T) {
	t.Parallel()

	valid, err := NewHeader(2, 0, 0, "")
	require.NoError(t, err)

	t.Run("short file", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader([]byte("LASF")))
		assert.ErrorIs(t, err, ErrNotLAS)
	})

	t.Run("bad signature", func(t *testing.T) {
		raw := valid.Template()
		copy(raw, "NOPE")
		_, err := NewReader(bytes.NewReader(raw))
		assert.ErrorIs(t, err, ErrNotLAS)
	})

	t.Run("compressed", func(t *testing.T) {
		raw := valid.Template()
		raw[OFFSET_POINT_FORMAT] |= COMPRESSED_BIT
		_, err := NewReader(bytes.NewReader(raw))
		assert.ErrorIs(t, err, ErrCompressed)
	})

	t.Run("unknown format", func(t *testing.T) {
		raw := valid.Template()
		raw[OFFSET_POINT_FORMAT] = 11
		_, err := NewReader(bytes.NewReader(raw))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestReader_DataOffsetPastEndOfFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "offset.las")
	writeTestFile(t, path, 2, 0, 2)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(raw[OFFSET_POINT_DATA:], 0xFFFFFFF0)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beyond end of file")

	_, err = NewReader(bytes.NewReader(raw))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadPoint_TruncatedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "full.las")
	writeTestFile(t, path, 2, 0, 3)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("clean boundary ends early", func(t *testing.T) {
		r, err := NewReader(bytes.NewReader(raw[:len(raw)-20]))
		require.NoError(t, err)
		n := 0
		for {
			_, err := r.ReadPoint()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, 2, n)
		assert.Equal(t, uint64(3), r.Header().PointCount)
	})

	t.Run("partial record is an error", func(t *testing.T) {
		r, err := NewReader(bytes.NewReader(raw[:len(raw)-7]))
		require.NoError(t, err)
		var lastErr error
		for i := 0; i < 3; i++ {
			if _, lastErr = r.ReadPoint(); lastErr != nil {
				break
			}
		}
		require.Error(t, lastErr)
		assert.ErrorIs(t, lastErr, io.ErrUnexpectedEOF)
	})
}

func TestPointClassification(t *testing.T) {
	t.Parallel()

	t.Run("legacy keeps flag bits", func(t *testing.T) {
		p := NewPoint(1, 28)
		p.data[LEGACY_CLASS_OFFSET] = 0xE0 // synthetic, keypoint, withheld
		assert.Equal(t, uint8(0), p.Classification())
		require.NoError(t, p.SetClassification(11))
		assert.Equal(t, uint8(11), p.Classification())
		assert.Equal(t, uint8(0xEB), p.data[LEGACY_CLASS_OFFSET])
	})

	t.Run("legacy rejects above 31", func(t *testing.T) {
		p := NewPoint(0, 20)
		assert.Equal(t, uint8(LEGACY_MAX_CLASS), p.MaxClassification())
		assert.ErrorIs(t, p.SetClassification(32), ErrClassRange)
		assert.Equal(t, uint8(0), p.Classification())
	})

	t.Run("extended uses full byte", func(t *testing.T) {
		p := NewPoint(6, 30)
		assert.Equal(t, uint8(EXTENDED_MAX_CLASS), p.MaxClassification())
		require.NoError(t, p.SetClassification(200))
		assert.Equal(t, uint8(200), p.Classification())
	})
}

func TestInventory_IgnoresZeroReturnNumber(t *testing.T) {
	t.Parallel()
	var inv Inventory
	p := NewPoint(0, 20)
	p.SetXYZ(5, 6, 7)
	inv.Add(p)
	assert.Equal(t, uint64(1), inv.Count)
	assert.Equal(t, [EXTENDED_RETURNS]uint64{}, inv.ByReturn)
	assert.Equal(t, int32(5), inv.MinX)
	assert.Equal(t, int32(7), inv.MaxZ)
}

func TestHeaderPreservesVLRBytes(t *testing.T) {
	t.Parallel()
	h, err := NewHeader(2, 0, 0, "")
	require.NoError(t, err)

	// Graft a fake 60-byte VLR between header and point data.
	raw := h.Template()
	vlr := bytes.Repeat([]byte{0xAB}, 60)
	raw = append(raw, vlr...)
	binary.LittleEndian.PutUint32(raw[OFFSET_POINT_DATA:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(raw[OFFSET_NUMBER_OF_VLRS:], 1)

	withVLR, err := ParseHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), withVLR.NumberOfVLRs)

	path := filepath.Join(t.TempDir(), "vlr.las")
	w, err := Create(path, withVLR)
	require.NoError(t, err)
	require.NoError(t, w.UpdateHeader(withVLR, true))
	total, err := w.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), total)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, vlr, out[HEADER_SIZE_12:])
}
