package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Link handles NFSPROC3_LINK (RFC 1813 §3.3.15): adds a new directory
// entry pointing at an existing file, bumping its link count.
func Link(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}

	fileWcc, dirWcc, opErr := fs.Link(ctx, h, dir, name)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, fileWcc.After)
	encodeWccData(e, dirWcc)
	return e.Bytes(), nil
}
