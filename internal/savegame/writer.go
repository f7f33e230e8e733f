// Package savegame implements the sequential binary stream used to persist
// seed volumes. All multi-byte values are little-endian; strings and byte
// blobs are prefixed with their int32 length.
package savegame

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/udisondev/seed/internal/geom"
)

// Writer appends values to an in-memory save stream.
type Writer struct {
	buf *bytes.Buffer
}

// writerPool reduces allocations when many volumes are saved in a row.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: bytes.NewBuffer(make([]byte, 0, 4096))}
	},
}

// Get returns a Writer from the pool (already Reset).
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns a Writer to the pool. The Writer and its Bytes must not be used afterwards.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, capacity))}
}

// WriteBool writes a bool as one byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

// WriteInt writes an int32.
func (w *Writer) WriteInt(val int32) {
	w.WriteUint(uint32(val))
}

// WriteUint writes a uint32.
func (w *Writer) WriteUint(val uint32) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
	w.buf.WriteByte(byte(val >> 16))
	w.buf.WriteByte(byte(val >> 24))
}

// WriteLong writes an int64.
func (w *Writer) WriteLong(val int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(val))
	w.buf.Write(tmp[:])
}

// WriteFloat writes a float64 bit-exact.
func (w *Writer) WriteFloat(val float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(val))
	w.buf.Write(tmp[:])
}

// WriteVec3 writes three floats.
func (w *Writer) WriteVec3(v geom.Vec3) {
	w.WriteFloat(v.X)
	w.WriteFloat(v.Y)
	w.WriteFloat(v.Z)
}

// WriteAngles writes pitch, yaw and roll.
func (w *Writer) WriteAngles(a geom.Angles) {
	w.WriteFloat(a.Pitch)
	w.WriteFloat(a.Yaw)
	w.WriteFloat(a.Roll)
}

// WriteString writes a length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) {
	w.WriteInt(int32(len(s)))
	w.buf.WriteString(s)
}

// WriteBytes writes a length-prefixed blob.
func (w *Writer) WriteBytes(data []byte) {
	w.WriteInt(int32(len(data)))
	_, _ = w.buf.Write(data)
}

// WriteMat3 writes the three rows of m.
func (w *Writer) WriteMat3(m geom.Mat3) {
	for _, row := range m {
		w.WriteVec3(row)
	}
}

// Bytes returns the accumulated stream.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the current stream length.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// WriteTo writes the stream to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf.Bytes())
	return int64(n), err
}
