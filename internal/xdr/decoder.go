package xdr

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Decoder reads XDR primitives from an in-memory byte cursor. It is
// deliberately not built over an arbitrary io.Reader: a caller can
// snapshot the read offset before a decode and restore it afterwards (see
// Offset/Seek), which requires random access into the already-buffered
// bytes. internal/session does not call Seek; it decodes each fragment
// once.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder wraps data for decoding starting at offset 0.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Offset returns the current read cursor position.
func (d *Decoder) Offset() int { return d.off }

// Seek restores the read cursor to a previously observed offset, so a
// decode can be rerun from the state before a failed attempt rather than
// the state after it.
func (d *Decoder) Seek(off int) { d.off = off }

// Remaining reports how many bytes are left to read.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

func (d *Decoder) readN(n int) ([]byte, error) {
	if d.off+n > len(d.data) {
		return nil, wrapShortRead(io.ErrUnexpectedEOF)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) skipPadding(n int) error {
	pad := (4 - n%4) % 4
	if pad == 0 {
		return nil
	}
	b, err := d.readN(pad)
	if err != nil {
		return err
	}
	for _, c := range b {
		if c != 0 {
			return ErrIncorrectPadding
		}
	}
	return nil
}

// Uint32 decodes a big-endian uint32.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint64 decodes a big-endian uint64 (XDR "hyper").
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Int32 decodes a big-endian two's-complement int32.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

// Int64 decodes a big-endian two's-complement int64.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

// Bool decodes an XDR boolean: a uint32 restricted to 0 (false) or 1
// (true); any other value is EnumDiscMismatch, matching the RFC's
// treatment of bool as a two-member enum.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint32()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool value %d", ErrEnumDiscMismatch, v)
	}
}

// FixedArray decodes exactly n bytes followed by padding to a 4-byte
// boundary.
func (d *Decoder) FixedArray(n int) ([]byte, error) {
	b, err := d.readN(n)
	if err != nil {
		return nil, err
	}
	if err := d.skipPadding(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// OpaqueBounded decodes a length-prefixed byte string whose declared
// length must not exceed max.
func (d *Decoder) OpaqueBounded(max uint32) ([]byte, error) {
	length, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if length > max {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrMaxElemLimit, length, max)
	}
	return d.FixedOpaque(int(length))
}

// FixedOpaque decodes exactly n raw bytes followed by XDR padding, with
// no length prefix of its own. Used when the length has already been
// decoded separately (e.g. a WRITE call's data opaque<>, whose length is
// read ahead of time so the caller can size pool storage before the data
// bytes themselves are read).
func (d *Decoder) FixedOpaque(n int) ([]byte, error) {
	b, err := d.readN(n)
	if err != nil {
		return nil, err
	}
	if err := d.skipPadding(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// StringBounded decodes a length-prefixed string, validating UTF-8.
func (d *Decoder) StringBounded(max uint32) (string, error) {
	b, err := d.OpaqueBounded(max)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrIncorrectString
	}
	return string(b), nil
}

// Option decodes an XDR optional value: a bool followed by the inner
// value iff true. decodeInner is invoked only when the value is present.
func (d *Decoder) Option(decodeInner func() error) (bool, error) {
	present, err := d.Bool()
	if err != nil {
		return false, err
	}
	if present {
		if err := decodeInner(); err != nil {
			return false, err
		}
	}
	return present, nil
}

// Discriminant decodes a uint32 union/enum discriminant and validates it
// against the finite set of valid values.
func (d *Decoder) Discriminant(valid ...uint32) (uint32, error) {
	v, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	for _, ok := range valid {
		if v == ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: discriminant %d", ErrEnumDiscMismatch, v)
}
