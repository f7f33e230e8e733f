package savegame

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/testutil"
)

func TestWriterReader_Sequence(t *testing.T) {
	w := NewWriter(64)
	w.WriteBool(true)
	w.WriteInt(-42)
	w.WriteUint(0xDEADBEEF)
	w.WriteLong(-1 << 40)
	w.WriteFloat(0.1)
	w.WriteVec3(geom.V(1.5, -2, 3e9))
	w.WriteAngles(geom.Angles{Pitch: 10, Yaw: 20, Roll: 30})
	w.WriteString("models/rock.lwo")
	w.WriteString("")
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteMat3(geom.Identity())

	r := NewReader(w.Bytes())

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int32(-42), i)

	u, err := r.ReadUint()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u)

	l, err := r.ReadLong()
	require.NoError(t, err)
	assert.Equal(t, int64(-1<<40), l)

	f, err := r.ReadFloat()
	require.NoError(t, err)
	assert.Equal(t, 0.1, f)

	v, err := r.ReadVec3()
	require.NoError(t, err)
	assert.Equal(t, geom.V(1.5, -2, 3e9), v)

	a, err := r.ReadAngles()
	require.NoError(t, err)
	assert.Equal(t, geom.Angles{Pitch: 10, Yaw: 20, Roll: 30}, a)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "models/rock.lwo", s)

	s, err = r.ReadString()
	require.NoError(t, err)
	assert.Empty(t, s)

	blob, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, blob)

	m, err := r.ReadMat3()
	require.NoError(t, err)
	assert.Equal(t, geom.Identity(), m)

	assert.Zero(t, r.Remaining())
}

func TestWriter_LittleEndian(t *testing.T) {
	w := NewWriter(8)
	w.WriteInt(0x12345678)
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, w.Bytes())

	w.Reset()
	w.WriteString("ab")
	assert.Equal(t, []byte{2, 0, 0, 0, 'a', 'b'}, w.Bytes())
}

func TestReader_ShortRead(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"bool", nil, func(r *Reader) error { _, err := r.ReadBool(); return err }},
		{"int", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.ReadInt(); return err }},
		{"float", make([]byte, 7), func(r *Reader) error { _, err := r.ReadFloat(); return err }},
		{"vec3", make([]byte, 23), func(r *Reader) error { _, err := r.ReadVec3(); return err }},
		{"angles", make([]byte, 16), func(r *Reader) error { _, err := r.ReadAngles(); return err }},
		{"string prefix", []byte{5, 0}, func(r *Reader) error { _, err := r.ReadString(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader(tt.data))
			assert.ErrorIs(t, err, ErrShortRead)
		})
	}
}

func TestReader_BadLength(t *testing.T) {
	neg := make([]byte, 4)
	binary.LittleEndian.PutUint32(neg, uint32(0xFFFFFFFF))

	tests := []struct {
		name string
		data []byte
	}{
		{"negative", neg},
		{"past end", []byte{10, 0, 0, 0, 'a'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(tt.data).ReadString()
			assert.ErrorIs(t, err, ErrBadLength)
			_, err = NewReader(tt.data).ReadBytes()
			assert.ErrorIs(t, err, ErrBadLength)
		})
	}
}

func TestReader_BytesIsCopy(t *testing.T) {
	w := NewWriter(8)
	w.WriteBytes([]byte{9, 9})
	data := w.Bytes()

	out, err := NewReader(data).ReadBytes()
	require.NoError(t, err)
	out[0] = 0
	assert.Equal(t, byte(9), data[4])
}

func TestDecoder_KeepsFirstError(t *testing.T) {
	w := NewWriter(16)
	w.WriteInt(7)
	w.WriteString("x")

	d := NewDecoder(w.Bytes())
	assert.Equal(t, int32(7), d.Int())
	assert.Equal(t, "x", d.Text())
	require.NoError(t, d.Err())

	assert.Zero(t, d.Float())
	require.ErrorIs(t, d.Err(), ErrShortRead)
	first := d.Err()

	assert.Zero(t, d.Int())
	assert.Equal(t, geom.Vec3{}, d.Vec3())
	assert.Same(t, first, d.Err())
}

func TestDecoder_Count(t *testing.T) {
	tests := []struct {
		name    string
		value   int32
		limit   int
		want    int
		wantErr bool
	}{
		{"in range", 3, 10, 3, false},
		{"zero", 0, 10, 0, false},
		{"at limit", 10, 10, 10, false},
		{"over limit", 11, 10, 0, true},
		{"negative", -1, 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(4)
			w.WriteInt(tt.value)
			d := NewDecoder(w.Bytes())
			assert.Equal(t, tt.want, d.Count(tt.limit))
			if tt.wantErr {
				assert.ErrorIs(t, d.Err(), ErrBadLength)
				return
			}
			assert.NoError(t, d.Err())
		})
	}
}

func TestPool_GetReturnsEmpty(t *testing.T) {
	w := Get()
	w.WriteString("leftover")
	w.Put()

	w = Get()
	defer w.Put()
	assert.Zero(t, w.Len())
}

func TestWriter_WriteTo(t *testing.T) {
	w := NewWriter(8)
	w.WriteInt(1)

	var dst bytes.Buffer
	n, err := w.WriteTo(&dst)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, w.Bytes(), dst.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, testutil.ErrSimulated }

func TestWriter_WriteToError(t *testing.T) {
	w := NewWriter(8)
	w.WriteInt(1)

	_, err := w.WriteTo(failingWriter{})
	require.ErrorIs(t, err, testutil.ErrSimulated)
}
