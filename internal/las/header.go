package las

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Public header block offsets. Fields not listed here are preserved verbatim.
const (
	SIGNATURE = "LASF"

	OFFSET_VERSION_MAJOR      = 24
	OFFSET_VERSION_MINOR      = 25
	OFFSET_SYSTEM_ID          = 26  // 32 bytes
	OFFSET_GENERATING_SW      = 58  // 32 bytes
	OFFSET_HEADER_SIZE        = 94  // uint16
	OFFSET_POINT_DATA         = 96  // uint32
	OFFSET_NUMBER_OF_VLRS     = 100 // uint32
	OFFSET_POINT_FORMAT       = 104 // uint8
	OFFSET_RECORD_LENGTH      = 105 // uint16
	OFFSET_LEGACY_POINT_COUNT = 107 // uint32
	OFFSET_LEGACY_BY_RETURN   = 111 // 5 x uint32
	OFFSET_SCALE              = 131 // 3 x float64
	OFFSET_OFFSET             = 155 // 3 x float64
	OFFSET_EXTENT             = 179 // max x, min x, max y, min y, max z, min z
	OFFSET_WAVEFORM_START     = 227 // uint64, 1.3+
	OFFSET_EVLR_START         = 235 // uint64, 1.4
	OFFSET_EVLR_COUNT         = 243 // uint32, 1.4
	OFFSET_POINT_COUNT        = 247 // uint64, 1.4
	OFFSET_BY_RETURN          = 255 // 15 x uint64, 1.4

	HEADER_SIZE_12 = 227
	HEADER_SIZE_13 = 235
	HEADER_SIZE_14 = 375

	LEGACY_RETURNS   = 5
	EXTENDED_RETURNS = 15

	MAX_POINT_FORMAT = 10
	COMPRESSED_BIT   = 0x80
)

var (
	// ErrNotLAS is returned when the file signature is not "LASF".
	ErrNotLAS = errors.New("las: not a LAS file")
	// ErrCompressed is returned for LAZ input, which this package does not decode.
	ErrCompressed = errors.New("las: compressed (LAZ) point data is not supported")
	// ErrUnsupportedFormat is returned for point formats outside 0-10.
	ErrUnsupportedFormat = errors.New("las: unsupported point data format")
)

// minRecordLength is the size of the core record for each point format.
var minRecordLength = [MAX_POINT_FORMAT + 1]uint16{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

// Header is a decoded public header block plus the raw bytes of the header
// and VLR block, which the writer copies into its output.
type Header struct {
	VersionMajor       uint8
	VersionMinor       uint8
	SystemID           string
	GeneratingSoftware string
	HeaderSize         uint16
	OffsetToPointData  uint32
	NumberOfVLRs       uint32
	PointFormat        uint8
	PointRecordLength  uint16
	PointCount         uint64
	PointsByReturn     [EXTENDED_RETURNS]uint64

	Scale  [3]float64
	Offset [3]float64
	Min    [3]float64
	Max    [3]float64

	raw []byte
}

// ParseHeader decodes the public header block at the start of prefix. The
// prefix must contain at least the header itself; if it extends to
// OffsetToPointData the VLR block is kept as part of the template.
func ParseHeader(prefix []byte) (*Header, error) {
	if len(prefix) < HEADER_SIZE_12 {
		return nil, fmt.Errorf("%w: header truncated at %d bytes", ErrNotLAS, len(prefix))
	}
	if !bytes.Equal(prefix[:4], []byte(SIGNATURE)) {
		return nil, ErrNotLAS
	}

	le := binary.LittleEndian
	h := &Header{
		VersionMajor:       prefix[OFFSET_VERSION_MAJOR],
		VersionMinor:       prefix[OFFSET_VERSION_MINOR],
		SystemID:           cString(prefix[OFFSET_SYSTEM_ID : OFFSET_SYSTEM_ID+32]),
		GeneratingSoftware: cString(prefix[OFFSET_GENERATING_SW : OFFSET_GENERATING_SW+32]),
		HeaderSize:         le.Uint16(prefix[OFFSET_HEADER_SIZE:]),
		OffsetToPointData:  le.Uint32(prefix[OFFSET_POINT_DATA:]),
		NumberOfVLRs:       le.Uint32(prefix[OFFSET_NUMBER_OF_VLRS:]),
		PointRecordLength:  le.Uint16(prefix[OFFSET_RECORD_LENGTH:]),
	}

	format := prefix[OFFSET_POINT_FORMAT]
	if format&COMPRESSED_BIT != 0 {
		return nil, ErrCompressed
	}
	h.PointFormat = format & 0x3F
	if h.PointFormat > MAX_POINT_FORMAT {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, h.PointFormat)
	}
	if h.PointRecordLength < minRecordLength[h.PointFormat] {
		return nil, fmt.Errorf("las: record length %d too short for point format %d", h.PointRecordLength, h.PointFormat)
	}
	if int(h.HeaderSize) < HEADER_SIZE_12 || uint32(h.HeaderSize) > h.OffsetToPointData {
		return nil, fmt.Errorf("las: inconsistent header size %d (point data at %d)", h.HeaderSize, h.OffsetToPointData)
	}
	if len(prefix) < int(h.HeaderSize) {
		return nil, fmt.Errorf("las: header truncated: have %d of %d bytes", len(prefix), h.HeaderSize)
	}

	h.PointCount = uint64(le.Uint32(prefix[OFFSET_LEGACY_POINT_COUNT:]))
	for i := 0; i < LEGACY_RETURNS; i++ {
		h.PointsByReturn[i] = uint64(le.Uint32(prefix[OFFSET_LEGACY_BY_RETURN+4*i:]))
	}
	if h.hasExtendedCounts() {
		// 1.4 readers must prefer the 64-bit fields when they are populated.
		if n := le.Uint64(prefix[OFFSET_POINT_COUNT:]); n != 0 {
			h.PointCount = n
			for i := 0; i < EXTENDED_RETURNS; i++ {
				h.PointsByReturn[i] = le.Uint64(prefix[OFFSET_BY_RETURN+8*i:])
			}
		}
	}

	for i := 0; i < 3; i++ {
		h.Scale[i] = math.Float64frombits(le.Uint64(prefix[OFFSET_SCALE+8*i:]))
		h.Offset[i] = math.Float64frombits(le.Uint64(prefix[OFFSET_OFFSET+8*i:]))
		h.Max[i] = math.Float64frombits(le.Uint64(prefix[OFFSET_EXTENT+16*i:]))
		h.Min[i] = math.Float64frombits(le.Uint64(prefix[OFFSET_EXTENT+16*i+8:]))
	}

	end := len(prefix)
	if end > int(h.OffsetToPointData) {
		end = int(h.OffsetToPointData)
	}
	h.raw = append([]byte(nil), prefix[:end]...)
	return h, nil
}

// NewHeader builds a header with no VLRs for a LAS 1.x file, using a
// 0.01 scale and zero offset on every axis. recordLength 0 selects the core
// record size of the format.
func NewHeader(versionMinor, format uint8, recordLength uint16, generatingSoftware string) (*Header, error) {
	if format > MAX_POINT_FORMAT {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	if recordLength == 0 {
		recordLength = minRecordLength[format]
	}
	size := HEADER_SIZE_12
	switch {
	case versionMinor >= 4:
		size = HEADER_SIZE_14
	case versionMinor == 3:
		size = HEADER_SIZE_13
	}

	raw := make([]byte, size)
	le := binary.LittleEndian
	copy(raw, SIGNATURE)
	raw[OFFSET_VERSION_MAJOR] = 1
	raw[OFFSET_VERSION_MINOR] = versionMinor
	copy(raw[OFFSET_GENERATING_SW:OFFSET_GENERATING_SW+31], generatingSoftware)
	le.PutUint16(raw[OFFSET_HEADER_SIZE:], uint16(size))
	le.PutUint32(raw[OFFSET_POINT_DATA:], uint32(size))
	raw[OFFSET_POINT_FORMAT] = format
	le.PutUint16(raw[OFFSET_RECORD_LENGTH:], recordLength)
	for i := 0; i < 3; i++ {
		le.PutUint64(raw[OFFSET_SCALE+8*i:], math.Float64bits(0.01))
	}
	return ParseHeader(raw)
}

// Extended reports whether points use the 6-10 record layout.
func (h *Header) Extended() bool {
	return h.PointFormat >= 6
}

func (h *Header) hasExtendedCounts() bool {
	return h.VersionMajor == 1 && h.VersionMinor >= 4 && int(h.HeaderSize) >= HEADER_SIZE_14
}

// Template returns a copy of the header and VLR bytes that precede the
// point records.
func (h *Header) Template() []byte {
	return append([]byte(nil), h.raw...)
}

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	c := *h
	c.raw = h.Template()
	return &c
}

// encode writes the inventory-owned fields of h into its raw template and
// returns the patched bytes. Fields not owned by the inventory are left as
// they were read.
func (h *Header) encode() []byte {
	out := h.Template()
	le := binary.LittleEndian

	legacyCount := h.PointCount
	legacyByReturn := h.PointsByReturn
	if h.Extended() || legacyCount > math.MaxUint32 {
		// Legacy fields must be zero when they cannot describe the data.
		legacyCount = 0
		legacyByReturn = [EXTENDED_RETURNS]uint64{}
	}
	le.PutUint32(out[OFFSET_LEGACY_POINT_COUNT:], uint32(legacyCount))
	for i := 0; i < LEGACY_RETURNS; i++ {
		v := legacyByReturn[i]
		if v > math.MaxUint32 {
			v = 0
		}
		le.PutUint32(out[OFFSET_LEGACY_BY_RETURN+4*i:], uint32(v))
	}

	for i := 0; i < 3; i++ {
		le.PutUint64(out[OFFSET_EXTENT+16*i:], math.Float64bits(h.Max[i]))
		le.PutUint64(out[OFFSET_EXTENT+16*i+8:], math.Float64bits(h.Min[i]))
	}

	if h.hasExtendedCounts() && len(out) >= HEADER_SIZE_14 {
		le.PutUint64(out[OFFSET_EVLR_START:], 0)
		le.PutUint32(out[OFFSET_EVLR_COUNT:], 0)
		le.PutUint64(out[OFFSET_POINT_COUNT:], h.PointCount)
		for i := 0; i < EXTENDED_RETURNS; i++ {
			le.PutUint64(out[OFFSET_BY_RETURN+8*i:], h.PointsByReturn[i])
		}
	}
	return out
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
