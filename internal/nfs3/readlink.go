package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// ReadLink handles NFSPROC3_READLINK (RFC 1813 §3.3.5): returns the
// target path stored in a symlink object.
func ReadLink(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}

	target, attr, opErr := fs.ReadLink(ctx, h)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status == StatusOK {
		e.StringBounded(target)
	}
	return e.Bytes(), nil
}
