package nfs3

import (
	"context"
	"fmt"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// MaxWriteCount bounds a single WRITE call's data payload, matching the
// wtmax this core advertises from FSINFO.
const MaxWriteCount = 1 << 20

// WriteHeader is the fixed portion of a WRITE call's arguments: every
// field up to and including the data opaque<>'s length prefix. Decoded
// ahead of the data bytes themselves so a caller can size pool storage
// for the payload before reading it.
type WriteHeader struct {
	Handle  vfs.Handle
	Offset  uint64
	Stable  vfs.WriteMode
	DataLen uint32
}

// DecodeWriteHeader decodes a WriteHeader from d, leaving d positioned at
// the first byte of the data opaque<> (not including that opaque<>'s own
// length prefix, already consumed). The session engine's WRITE fast path
// uses this to learn DataLen before allocating pool storage, so the data
// bytes that follow never have to pass through this decoder.
func DecodeWriteHeader(d *xdr.Decoder) (WriteHeader, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return WriteHeader{}, err
	}
	offset, err := d.Uint64()
	if err != nil {
		return WriteHeader{}, err
	}
	if _, err := d.Uint32(); err != nil { // count, redundant with opaque<> length below
		return WriteHeader{}, err
	}
	stableWire, err := d.Discriminant(0, 1, 2)
	if err != nil {
		return WriteHeader{}, err
	}
	dataLen, err := d.Uint32()
	if err != nil {
		return WriteHeader{}, err
	}
	if dataLen > MaxWriteCount {
		return WriteHeader{}, fmt.Errorf("%w: write count %d exceeds %d", xdr.ErrMaxElemLimit, dataLen, MaxWriteCount)
	}
	return WriteHeader{Handle: h, Offset: offset, Stable: vfs.WriteMode(stableWire), DataLen: dataLen}, nil
}

// FinishWrite runs the VFS write against already-staged data segments and
// encodes the reply. The session engine's WRITE fast path calls this
// directly with segments backed by pool memory, bypassing Write below
// entirely so the payload is never copied onto the heap.
func FinishWrite(ctx context.Context, fs vfs.Vfs, h WriteHeader, data [][]byte) (Result, error) {
	count, committed, verifier, wcc, opErr := fs.Write(ctx, h.Handle, h.Offset, data, h.Stable)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodeWccData(e, wcc)
	if status == StatusOK {
		e.Uint32(count)
		e.Discriminant(uint32(committed))
		e.FixedArray(verifier[:])
	}
	return Result{Header: e.Bytes()}, nil
}

// Write handles NFSPROC3_WRITE (RFC 1813 §3.3.7) from a single
// already-flattened decoder. This is the fallback path used by tests and
// by any caller that does not have direct socket access to stream the
// data payload; the real session engine calls DecodeWriteHeader and
// FinishWrite directly (see internal/session/connection.go) so the data
// bytes land in pool memory without first passing through this decoder.
func Write(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) (Result, error) {
	h, err := DecodeWriteHeader(d)
	if err != nil {
		return Result{}, err
	}
	data, err := d.FixedOpaque(int(h.DataLen))
	if err != nil {
		return Result{}, err
	}
	return FinishWrite(ctx, fs, h, [][]byte{data})
}
