package xdr

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

func be32(values ...uint32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range values {
		_ = binary.Write(buf, binary.BigEndian, v)
	}
	return buf.Bytes()
}

// ============================================================================
// Scalar Tests
// ============================================================================

func TestUint32(t *testing.T) {
	t.Run("EncodesBigEndian", func(t *testing.T) {
		buf := new(bytes.Buffer)
		s := NewEncoder(buf)
		v := uint32(0x01020304)

		require.NoError(t, s.Uint32(&v))
		assert.Equal(t, []byte{1, 2, 3, 4}, buf.Bytes())
		assert.Equal(t, 4, s.Pos())
	})

	t.Run("DecodesBigEndian", func(t *testing.T) {
		s := NewDecoder(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef}))
		var v uint32

		require.NoError(t, s.Uint32(&v))
		assert.Equal(t, uint32(0xdeadbeef), v)
	})

	t.Run("FailsOnShortInput", func(t *testing.T) {
		s := NewDecoder(bytes.NewReader([]byte{0, 0, 1}))
		var v uint32

		require.Error(t, s.Uint32(&v))
	})

	t.Run("SizerCountsWithoutWriting", func(t *testing.T) {
		s := NewSizer()
		v := uint32(7)

		require.NoError(t, s.Uint32(&v))
		require.NoError(t, s.Uint32(&v))
		assert.Equal(t, 8, s.Pos())
		assert.Equal(t, OpSize, s.Op())
	})
}

func TestEnum(t *testing.T) {
	type color int32

	t.Run("RoundTripsNegativeValues", func(t *testing.T) {
		buf := new(bytes.Buffer)
		in := color(-2)
		require.NoError(t, Enum(NewEncoder(buf), &in))
		assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xfe}, buf.Bytes())

		var out color
		require.NoError(t, Enum(NewDecoder(bytes.NewReader(buf.Bytes())), &out))
		assert.Equal(t, in, out)
	})

	t.Run("AcceptsValuesOutsideAnyDeclaredSet", func(t *testing.T) {
		var out color
		require.NoError(t, Enum(NewDecoder(bytes.NewReader(be32(9999))), &out))
		assert.Equal(t, color(9999), out)
	})
}

func TestBool(t *testing.T) {
	buf := new(bytes.Buffer)
	v := true
	require.NoError(t, NewEncoder(buf).Bool(&v))
	assert.Equal(t, be32(1), buf.Bytes())

	var out bool
	require.NoError(t, NewDecoder(bytes.NewReader(buf.Bytes())).Bool(&out))
	assert.True(t, out)
}

// ============================================================================
// Opaque Tests
// ============================================================================

func TestOpaque(t *testing.T) {
	t.Run("EncodesWithProperPadding", func(t *testing.T) {
		buf := new(bytes.Buffer)
		data := []byte{0x01, 0x02, 0x03}

		require.NoError(t, NewEncoder(buf).Opaque(&data, 400))
		expected := []byte{
			0, 0, 0, 3, // length
			0x01, 0x02, 0x03, 0, // data + 1 byte padding
		}
		assert.Equal(t, expected, buf.Bytes())
	})

	t.Run("EncodesEmptyAsZeroLength", func(t *testing.T) {
		buf := new(bytes.Buffer)
		var data []byte

		require.NoError(t, NewEncoder(buf).Opaque(&data, 400))
		assert.Equal(t, be32(0), buf.Bytes())
	})

	t.Run("DecodesAndSkipsPadding", func(t *testing.T) {
		wire := append(be32(5), 'h', 'e', 'l', 'l', 'o', 0, 0, 0)
		wire = append(wire, be32(42)...)
		s := NewDecoder(bytes.NewReader(wire))

		var data []byte
		require.NoError(t, s.Opaque(&data, 400))
		assert.Equal(t, []byte("hello"), data)

		var next uint32
		require.NoError(t, s.Uint32(&next))
		assert.Equal(t, uint32(42), next)
		assert.Equal(t, len(wire), s.Pos())
	})

	t.Run("RejectsOversizedEncode", func(t *testing.T) {
		data := make([]byte, 401)
		err := NewEncoder(new(bytes.Buffer)).Opaque(&data, 400)

		require.ErrorIs(t, err, ErrTooLong)
	})

	t.Run("RejectsOversizedLengthPrefix", func(t *testing.T) {
		s := NewDecoder(bytes.NewReader(be32(0xffffffff)))

		var data []byte
		err := s.Opaque(&data, 400)
		require.ErrorIs(t, err, ErrTooLong)

		var lerr *LengthError
		require.ErrorAs(t, err, &lerr)
		assert.Equal(t, uint64(0xffffffff), lerr.Length)
	})

	t.Run("FailsOnTruncatedBody", func(t *testing.T) {
		s := NewDecoder(bytes.NewReader(append(be32(8), 1, 2, 3)))

		var data []byte
		require.Error(t, s.Opaque(&data, 400))
	})
}

func TestFixedOpaque(t *testing.T) {
	t.Run("RoundTrips", func(t *testing.T) {
		buf := new(bytes.Buffer)
		in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		require.NoError(t, NewEncoder(buf).FixedOpaque(in))
		assert.Equal(t, in, buf.Bytes())

		out := make([]byte, 8)
		require.NoError(t, NewDecoder(bytes.NewReader(buf.Bytes())).FixedOpaque(out))
		assert.Equal(t, in, out)
	})

	t.Run("PadsOddLengths", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, NewEncoder(buf).FixedOpaque([]byte{9}))
		assert.Equal(t, []byte{9, 0, 0, 0}, buf.Bytes())
	})
}

// ============================================================================
// Direction Tests
// ============================================================================

func TestRequireOp(t *testing.T) {
	assert.NoError(t, NewEncoder(new(bytes.Buffer)).RequireOp(OpEncode))
	assert.NoError(t, NewSizer().RequireOp(OpEncode, OpSize))

	err := NewDecoder(bytes.NewReader(nil)).RequireOp(OpEncode, OpSize)
	require.ErrorIs(t, err, ErrWrongDirection)
	assert.Contains(t, err.Error(), "DECODE")
}
