package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// SetAttr handles NFSPROC3_SETATTR (RFC 1813 §3.3.2). The optional guard
// ctime lets a client make the update conditional on having seen the
// object's most recent change; a stale guard fails with NotSync rather
// than silently clobbering a concurrent writer's update.
func SetAttr(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	attr, err := decodeSetAttr(d)
	if err != nil {
		return nil, err
	}
	guard, err := decodeSattrGuard(d)
	if err != nil {
		return nil, err
	}
	attr.Guard = guard

	wcc, opErr := fs.SetAttr(ctx, h, attr)

	e := xdr.NewEncoder()
	e.Uint32(uint32(statusOf(opErr)))
	encodeWccData(e, wcc)
	return e.Bytes(), nil
}
