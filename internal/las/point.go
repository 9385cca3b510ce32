package las

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	LEGACY_CLASS_OFFSET   = 15
	EXTENDED_CLASS_OFFSET = 16
	RETURN_OFFSET         = 14

	LEGACY_CLASS_MASK  = 0x1F // bits 0-4, bits 5-7 are synthetic/keypoint/withheld
	LEGACY_MAX_CLASS   = 31
	EXTENDED_MAX_CLASS = 255
)

// ErrClassRange is returned when a classification does not fit the point format.
var ErrClassRange = errors.New("las: classification out of range for point format")

// Point is one raw point record. Accessors decode fields on demand; the
// record bytes are written back unchanged apart from the classification.
type Point struct {
	format uint8
	data   []byte
}

// NewPoint returns a zeroed record of the given format and length.
func NewPoint(format uint8, recordLength uint16) *Point {
	return &Point{format: format, data: make([]byte, recordLength)}
}

// Format returns the point data format id.
func (p *Point) Format() uint8 { return p.format }

// Bytes returns the raw record.
func (p *Point) Bytes() []byte { return p.data }

// X returns the unscaled X coordinate.
func (p *Point) X() int32 { return int32(binary.LittleEndian.Uint32(p.data[0:])) }

// Y returns the unscaled Y coordinate.
func (p *Point) Y() int32 { return int32(binary.LittleEndian.Uint32(p.data[4:])) }

// Z returns the unscaled Z coordinate.
func (p *Point) Z() int32 { return int32(binary.LittleEndian.Uint32(p.data[8:])) }

// SetXYZ sets the unscaled coordinates.
func (p *Point) SetXYZ(x, y, z int32) {
	binary.LittleEndian.PutUint32(p.data[0:], uint32(x))
	binary.LittleEndian.PutUint32(p.data[4:], uint32(y))
	binary.LittleEndian.PutUint32(p.data[8:], uint32(z))
}

// ReturnNumber returns the 1-based return number, or 0 if unset.
func (p *Point) ReturnNumber() uint8 {
	if p.extended() {
		return p.data[RETURN_OFFSET] & 0x0F
	}
	return p.data[RETURN_OFFSET] & 0x07
}

// SetReturnNumber sets the return number bits, leaving the other bits alone.
func (p *Point) SetReturnNumber(n uint8) {
	if p.extended() {
		p.data[RETURN_OFFSET] = p.data[RETURN_OFFSET]&0xF0 | n&0x0F
		return
	}
	p.data[RETURN_OFFSET] = p.data[RETURN_OFFSET]&0xF8 | n&0x07
}

// Classification returns the class code with any flag bits stripped.
func (p *Point) Classification() uint8 {
	if p.extended() {
		return p.data[EXTENDED_CLASS_OFFSET]
	}
	return p.data[LEGACY_CLASS_OFFSET] & LEGACY_CLASS_MASK
}

// SetClassification stores c, keeping the legacy flag bits intact.
func (p *Point) SetClassification(c uint8) error {
	if c > p.MaxClassification() {
		return fmt.Errorf("%w: %d > %d (format %d)", ErrClassRange, c, p.MaxClassification(), p.format)
	}
	if p.extended() {
		p.data[EXTENDED_CLASS_OFFSET] = c
		return nil
	}
	p.data[LEGACY_CLASS_OFFSET] = p.data[LEGACY_CLASS_OFFSET]&^LEGACY_CLASS_MASK | c
	return nil
}

// MaxClassification is the largest class code the record layout can hold.
func (p *Point) MaxClassification() uint8 {
	if p.extended() {
		return EXTENDED_MAX_CLASS
	}
	return LEGACY_MAX_CLASS
}

func (p *Point) extended() bool { return p.format >= 6 }
