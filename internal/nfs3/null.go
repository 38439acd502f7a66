package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// Null handles NFSPROC3_NULL: a no-op liveness probe that always succeeds
// and carries no argument or result body.
func Null(ctx context.Context, fs vfs.Vfs) ([]byte, error) {
	return nil, fs.Null(ctx)
}
