package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// GetAttr handles NFSPROC3_GETATTR (RFC 1813 §3.3.1): the single most
// frequently issued NFS procedure, used by clients to validate cached
// attributes before trusting them.
func GetAttr(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}

	attr, opErr := fs.GetAttr(ctx, h)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	if status == StatusOK {
		encodeFileAttr(e, attr)
	}
	return e.Bytes(), nil
}
