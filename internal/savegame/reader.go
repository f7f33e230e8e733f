package savegame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/udisondev/seed/internal/geom"
)

// ErrShortRead is returned when the stream ends before a value is complete.
var ErrShortRead = errors.New("save stream truncated")

// ErrBadLength is returned for a negative or oversized length prefix.
var ErrBadLength = errors.New("invalid length prefix")

// Reader reads values in the order a Writer wrote them.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader over data. data is not copied.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) need(op string, n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("%s: need %d bytes at %d of %d: %w", op, n, r.pos, len(r.data), ErrShortRead)
	}
	return nil
}

// ReadBool reads a one-byte bool.
func (r *Reader) ReadBool() (bool, error) {
	if err := r.need("ReadBool", 1); err != nil {
		return false, err
	}
	b := r.data[r.pos]
	r.pos++
	return b != 0, nil
}

// ReadInt reads an int32.
func (r *Reader) ReadInt() (int32, error) {
	v, err := r.ReadUint()
	return int32(v), err
}

// ReadUint reads a uint32.
func (r *Reader) ReadUint() (uint32, error) {
	if err := r.need("ReadUint", 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadLong reads an int64.
func (r *Reader) ReadLong() (int64, error) {
	if err := r.need("ReadLong", 8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

// ReadFloat reads a float64.
func (r *Reader) ReadFloat() (float64, error) {
	if err := r.need("ReadFloat", 8); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// ReadVec3 reads three floats.
func (r *Reader) ReadVec3() (geom.Vec3, error) {
	if err := r.need("ReadVec3", 24); err != nil {
		return geom.Vec3{}, err
	}
	var v geom.Vec3
	v.X, _ = r.ReadFloat()
	v.Y, _ = r.ReadFloat()
	v.Z, _ = r.ReadFloat()
	return v, nil
}

// ReadAngles reads pitch, yaw and roll.
func (r *Reader) ReadAngles() (geom.Angles, error) {
	v, err := r.ReadVec3()
	if err != nil {
		return geom.Angles{}, fmt.Errorf("ReadAngles: %w", err)
	}
	return geom.AnglesFromVec(v), nil
}

// ReadMat3 reads three rows.
func (r *Reader) ReadMat3() (geom.Mat3, error) {
	var m geom.Mat3
	for i := range m {
		row, err := r.ReadVec3()
		if err != nil {
			return geom.Mat3{}, fmt.Errorf("ReadMat3: %w", err)
		}
		m[i] = row
	}
	return m, nil
}

func (r *Reader) length(op string) (int, error) {
	n, err := r.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n < 0 || int(n) > r.Remaining() {
		return 0, fmt.Errorf("%s: length %d with %d bytes left: %w", op, n, r.Remaining(), ErrBadLength)
	}
	return int(n), nil
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.length("ReadString")
	if err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s, nil
}

// ReadBytes reads a length-prefixed blob and returns a copy.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.length("ReadBytes")
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}
