package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Lookup handles NFSPROC3_LOOKUP (RFC 1813 §3.3.3): resolves a name
// within a directory to a handle plus the directory's WCC, so a client
// walking a path can revalidate every parent it passes through.
func Lookup(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}

	res, wcc, opErr := fs.Lookup(ctx, dir, name)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	if status == StatusOK {
		encodeHandle(e, res.Handle)
		encodePostOpAttr(e, &res.Attr)
	}
	encodePostOpAttr(e, wcc.After)
	return e.Bytes(), nil
}
