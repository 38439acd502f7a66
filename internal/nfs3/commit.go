package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Commit handles NFSPROC3_COMMIT (RFC 1813 §3.3.21): asks the server to
// flush previously UNSTABLE writes to stable storage and return the
// write verifier, so the client can tell whether a server restart
// happened between the writes and the commit.
func Commit(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	offset, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	count, err := d.Uint32()
	if err != nil {
		return nil, err
	}

	verifier, wcc, opErr := fs.Commit(ctx, h, offset, count)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodeWccData(e, wcc)
	if status == StatusOK {
		e.FixedArray(verifier[:])
	}
	return e.Bytes(), nil
}
