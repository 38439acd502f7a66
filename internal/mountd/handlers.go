package mountd

import (
	"context"
	"fmt"

	"github.com/go-nfsd/nfsd3/internal/rpc"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// authFlavors is the auth_flavors list advertised in a successful MNT
// reply. Only AUTH_NONE is required to succeed per spec.md §6, so it is
// the only flavor this core advertises.
var authFlavors = []uint32{rpc.AuthNull}

// ErrProcUnavail is returned by Dispatch for a procedure this program
// version does not define.
type ErrProcUnavail struct{ Procedure uint32 }

func (e *ErrProcUnavail) Error() string {
	return fmt.Sprintf("mountd: procedure %d not implemented", e.Procedure)
}

func decodeDirPath(d *xdr.Decoder) (string, error) {
	return d.StringBounded(MaxPathLen)
}

// Null handles MOUNTPROC3_NULL: a no-op liveness probe.
func Null(ctx context.Context) ([]byte, error) {
	return nil, nil
}

// Mnt handles MOUNTPROC3_MNT (RFC 1813 §5.2.1): resolves an export path
// to its root file handle and records the client as having it mounted.
func Mnt(ctx context.Context, reg Registry, clientHost string, d *xdr.Decoder) ([]byte, error) {
	path, err := decodeDirPath(d)
	if err != nil {
		return nil, err
	}

	handle, opErr := reg.Mount(clientHost, path)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	if status == StatusOK {
		e.OpaqueBounded(handle[:])
		e.Uint32(uint32(len(authFlavors)))
		for _, f := range authFlavors {
			e.Uint32(f)
		}
	}
	return e.Bytes(), nil
}

// Dump handles MOUNTPROC3_DUMP (RFC 1813 §5.2.2): lists every currently
// recorded (client, path) mount. The wire's "ml_next" chain is
// reconstructed from the registry's flat slice only here, at encode time.
func Dump(ctx context.Context, reg Registry) ([]byte, error) {
	entries := reg.Dump()
	return marshalXDR2(chainMountEntries(entries))
}

// Umnt handles MOUNTPROC3_UMNT (RFC 1813 §5.2.3): forgets one mount for
// the calling client. Unmounting a path never mounted is not an error.
func Umnt(ctx context.Context, reg Registry, clientHost string, d *xdr.Decoder) ([]byte, error) {
	path, err := decodeDirPath(d)
	if err != nil {
		return nil, err
	}
	reg.Unmount(clientHost, path)
	return nil, nil
}

// UmntAll handles MOUNTPROC3_UMNTALL (RFC 1813 §5.2.4): forgets every
// mount the calling client holds.
func UmntAll(ctx context.Context, reg Registry, clientHost string) ([]byte, error) {
	reg.UnmountAll(clientHost)
	return nil, nil
}

// Export handles MOUNTPROC3_EXPORT (RFC 1813 §5.2.5): lists every export
// path and the client groups the Registry advertises for it.
func Export(ctx context.Context, reg Registry) ([]byte, error) {
	exports := reg.Exports()
	return marshalXDR2(chainExports(exports))
}

// Dispatch decodes and executes one MOUNT call, returning the encoded
// result body (everything after accept_stat) or an error. A decode error
// propagates unwrapped (including xdr.ErrNeedMore) so the session engine
// can distinguish "need more bytes" from "garbage args"; *ErrProcUnavail
// specifically signals PROC_UNAVAIL.
func Dispatch(ctx context.Context, reg Registry, clientHost string, procedure uint32, args []byte) ([]byte, error) {
	d := xdr.NewDecoder(args)

	switch procedure {
	case ProcNull:
		return Null(ctx)
	case ProcMnt:
		return Mnt(ctx, reg, clientHost, d)
	case ProcDump:
		return Dump(ctx, reg)
	case ProcUmnt:
		return Umnt(ctx, reg, clientHost, d)
	case ProcUmntAll:
		return UmntAll(ctx, reg, clientHost)
	case ProcExport:
		return Export(ctx, reg)
	default:
		return nil, &ErrProcUnavail{Procedure: procedure}
	}
}
