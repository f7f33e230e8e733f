package savegame

import (
	"fmt"

	"github.com/udisondev/seed/internal/geom"
)

// Decoder wraps a Reader and keeps the first error, so long record
// layouts can be read field by field and checked once at the end.
type Decoder struct {
	r   *Reader
	err error
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{r: NewReader(data)}
}

// Err returns the first error met, if any.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return d.r.Remaining() }

func keep[T any](d *Decoder, read func() (T, error)) T {
	var zero T
	if d.err != nil {
		return zero
	}
	v, err := read()
	if err != nil {
		d.err = err
		return zero
	}
	return v
}

func (d *Decoder) Bool() bool          { return keep(d, d.r.ReadBool) }
func (d *Decoder) Int() int32          { return keep(d, d.r.ReadInt) }
func (d *Decoder) Uint() uint32        { return keep(d, d.r.ReadUint) }
func (d *Decoder) Long() int64         { return keep(d, d.r.ReadLong) }
func (d *Decoder) Float() float64      { return keep(d, d.r.ReadFloat) }
func (d *Decoder) Vec3() geom.Vec3     { return keep(d, d.r.ReadVec3) }
func (d *Decoder) Angles() geom.Angles { return keep(d, d.r.ReadAngles) }
func (d *Decoder) Mat3() geom.Mat3     { return keep(d, d.r.ReadMat3) }
func (d *Decoder) Text() string        { return keep(d, d.r.ReadString) }
func (d *Decoder) Bytes() []byte       { return keep(d, d.r.ReadBytes) }

// Count reads a non-negative int32 used as a list length. A negative
// value or one larger than limit stops decoding with ErrBadLength.
func (d *Decoder) Count(limit int) int {
	n := d.Int()
	if d.err != nil {
		return 0
	}
	if n < 0 || int(n) > limit {
		d.err = fmt.Errorf("count %d out of range [0, %d]: %w", n, limit, ErrBadLength)
		return 0
	}
	return int(n)
}
