package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Remove handles NFSPROC3_REMOVE (RFC 1813 §3.3.12): unlinks a
// non-directory entry.
func Remove(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}

	wcc, opErr := fs.Remove(ctx, dir, name)

	e := xdr.NewEncoder()
	e.Uint32(uint32(statusOf(opErr)))
	encodeWccData(e, wcc)
	return e.Bytes(), nil
}

// RemoveDir handles NFSPROC3_RMDIR (RFC 1813 §3.3.13): removes an empty
// directory entry; a non-empty target fails with NotEmpty.
func RemoveDir(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}

	wcc, opErr := fs.RemoveDir(ctx, dir, name)

	e := xdr.NewEncoder()
	e.Uint32(uint32(statusOf(opErr)))
	encodeWccData(e, wcc)
	return e.Bytes(), nil
}
