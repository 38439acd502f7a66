package xdr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Uint32(0xdeadbeef)
	e.Uint64(0x0102030405060708)
	e.Int32(-1)
	e.Bool(true)
	e.FixedArray([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	e.OpaqueBounded([]byte("hello"))
	e.StringBounded("nfs")
	e.Option(true, func() { e.Uint32(7) })
	e.Option(false, func() { e.Uint32(999) })
	e.Discriminant(2)

	d := NewDecoder(e.Bytes())

	u32, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := d.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	i32, err := d.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)

	b, err := d.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	fa, err := d.FixedArray(8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, fa)

	op, err := d.OpaqueBounded(64)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), op)

	str, err := d.StringBounded(64)
	require.NoError(t, err)
	assert.Equal(t, "nfs", str)

	var inner uint32
	present, err := d.Option(func() error {
		v, err := d.Uint32()
		inner = v
		return err
	})
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, uint32(7), inner)

	present, err = d.Option(func() error { return nil })
	require.NoError(t, err)
	assert.False(t, present)

	disc, err := d.Discriminant(0, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), disc)

	assert.Equal(t, 0, d.Remaining())
}

func TestOpaqueBoundedRejectsOverLength(t *testing.T) {
	e := NewEncoder()
	e.OpaqueBounded(make([]byte, 100))

	d := NewDecoder(e.Bytes())
	_, err := d.OpaqueBounded(64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxElemLimit))
}

func TestStringBoundedRejectsInvalidUTF8(t *testing.T) {
	e := NewEncoder()
	e.OpaqueBounded([]byte{0xff, 0xfe, 0xfd})

	d := NewDecoder(e.Bytes())
	_, err := d.StringBounded(64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncorrectString))
}

func TestDiscriminantRejectsUnknownValue(t *testing.T) {
	e := NewEncoder()
	e.Discriminant(9)

	d := NewDecoder(e.Bytes())
	_, err := d.Discriminant(0, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEnumDiscMismatch))
}

func TestBoolRejectsNonCanonicalValue(t *testing.T) {
	e := NewEncoder()
	e.Uint32(42)

	d := NewDecoder(e.Bytes())
	_, err := d.Bool()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEnumDiscMismatch))
}

func TestShortReadReportsNeedMore(t *testing.T) {
	d := NewDecoder([]byte{0, 0, 0})
	_, err := d.Uint32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNeedMore))
}

func TestIncorrectPaddingDetected(t *testing.T) {
	e := NewEncoder()
	e.OpaqueBounded([]byte("abc")) // 1 padding byte
	raw := e.Bytes()
	raw[len(raw)-1] = 0xff // corrupt the padding byte

	d := NewDecoder(raw)
	_, err := d.OpaqueBounded(64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncorrectPadding))
}

func TestSeekRestoresCursorForRetry(t *testing.T) {
	e := NewEncoder()
	e.Uint32(1)
	e.Uint32(2)
	full := e.Bytes()

	// Simulate a short buffer: only the first value is available.
	d := NewDecoder(full[:4])
	before := d.Offset()
	v1, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v1)

	_, err = d.Uint32()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNeedMore))

	// Refill: rebuild the decoder over the full buffer and restore the
	// pre-second-read offset rather than continuing from the failed
	// attempt's partially-advanced state.
	secondAttemptStart := 4 // offset after the first successful Uint32
	d2 := NewDecoder(full)
	d2.Seek(secondAttemptStart)
	assert.Equal(t, secondAttemptStart, d2.Offset())
	_ = before

	v2, err := d2.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v2)
}
