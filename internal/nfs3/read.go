package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/bufpool"
	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// MaxReadCount bounds a single READ reply's data payload. It matches the
// rtmax this core advertises from FSINFO; a client asking for more than
// this is silently capped, not rejected.
const MaxReadCount = 1 << 20

// Read handles NFSPROC3_READ (RFC 1813 §3.3.6). The data payload is
// staged in a pool Slice sized to the (capped) requested count and
// truncated to what the backend actually produced; the session engine
// streams that Slice straight to the socket via rpc.MakeSuccessReplyHeader
// instead of copying it into the reply's XDR buffer.
func Read(ctx context.Context, fs vfs.Vfs, pool *bufpool.Pool, d *xdr.Decoder) (Result, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return Result{}, err
	}
	offset, err := d.Uint64()
	if err != nil {
		return Result{}, err
	}
	count, err := d.Uint32()
	if err != nil {
		return Result{}, err
	}
	if count > MaxReadCount {
		count = MaxReadCount
	}

	slice, err := pool.Allocate(ctx, int(count))
	if err != nil {
		return Result{}, err
	}

	n, eof, attr, opErr := fs.Read(ctx, h, offset, slice.Segments())

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status != StatusOK {
		slice.Close()
		return Result{Header: e.Bytes()}, nil
	}

	slice.Truncate(n)
	e.Uint32(uint32(n))
	e.Bool(eof)
	e.Uint32(uint32(n)) // opaque<> length prefix; segments follow on the wire, written by the caller
	return Result{Header: e.Bytes(), Payload: slice}, nil
}
