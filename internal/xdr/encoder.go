package xdr

import (
	"bytes"
	"encoding/binary"
)

// Encoder appends XDR-encoded primitives to an internal buffer.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Len reports the number of bytes encoded so far.
func (e *Encoder) Len() int { return e.buf.Len() }

func (e *Encoder) writePadding(n int) {
	pad := (4 - n%4) % 4
	for i := 0; i < pad; i++ {
		e.buf.WriteByte(0)
	}
}

// Uint32 writes a big-endian uint32.
func (e *Encoder) Uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// Uint64 writes a big-endian uint64.
func (e *Encoder) Uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// Int32 writes a big-endian two's-complement int32.
func (e *Encoder) Int32(v int32) { e.Uint32(uint32(v)) }

// Int64 writes a big-endian two's-complement int64.
func (e *Encoder) Int64(v int64) { e.Uint64(uint64(v)) }

// Bool writes an XDR boolean as uint32 0 or 1.
func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint32(1)
	} else {
		e.Uint32(0)
	}
}

// FixedArray writes data verbatim followed by padding to a 4-byte
// boundary. The caller is responsible for data being exactly the
// agreed-upon fixed length.
func (e *Encoder) FixedArray(data []byte) {
	e.buf.Write(data)
	e.writePadding(len(data))
}

// OpaqueBounded writes a length-prefixed byte string.
func (e *Encoder) OpaqueBounded(data []byte) {
	e.Uint32(uint32(len(data)))
	e.buf.Write(data)
	e.writePadding(len(data))
}

// StringBounded writes a length-prefixed UTF-8 string.
func (e *Encoder) StringBounded(s string) {
	e.OpaqueBounded([]byte(s))
}

// Option writes the presence bool, then invokes encodeInner iff present.
func (e *Encoder) Option(present bool, encodeInner func()) {
	e.Bool(present)
	if present {
		encodeInner()
	}
}

// Discriminant writes a union/enum discriminant.
func (e *Encoder) Discriminant(v uint32) { e.Uint32(v) }

// Raw appends already-encoded bytes verbatim, with no length prefix or
// padding of its own. Used to splice a procedure's pre-encoded
// result body after the accept_stat written by the rpc package.
func (e *Encoder) Raw(b []byte) { e.buf.Write(b) }
