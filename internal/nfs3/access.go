package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Access handles NFSPROC3_ACCESS (RFC 1813 §3.3.4). The server may grant
// fewer bits than requested (or, per the interface contract, no more than
// requested); it must never report a bit the caller did not ask about.
func Access(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	mask, err := d.Uint32()
	if err != nil {
		return nil, err
	}

	granted, attr, opErr := fs.Access(ctx, h, vfs.AccessMask(mask))

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	e.Option(opErr == nil || attr != (vfs.FileAttr{}), func() { encodeFileAttr(e, attr) })
	if status == StatusOK {
		e.Uint32(uint32(granted))
	}
	return e.Bytes(), nil
}
