package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Rename handles NFSPROC3_RENAME (RFC 1813 §3.3.14). A rename across
// filesystems (distinct fsid) fails with XDev rather than silently
// falling back to copy-then-delete; the caller is expected to do that
// itself if it wants that behavior.
func Rename(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	fromDir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	fromName, err := decodeName(d)
	if err != nil {
		return nil, err
	}
	toDir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	toName, err := decodeName(d)
	if err != nil {
		return nil, err
	}

	fromWcc, toWcc, opErr := fs.Rename(ctx, fromDir, fromName, toDir, toName)

	e := xdr.NewEncoder()
	e.Uint32(uint32(statusOf(opErr)))
	encodeWccData(e, fromWcc)
	encodeWccData(e, toWcc)
	return e.Bytes(), nil
}
