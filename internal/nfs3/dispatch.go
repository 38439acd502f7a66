package nfs3

import (
	"context"
	"fmt"

	"github.com/go-nfsd/nfsd3/internal/bufpool"
	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// Result is a dispatched procedure's encoded outcome. Header is always
// present; Payload is set only for a procedure whose success reply
// carries bulk data staged in pool memory (READ), letting the session
// engine stream it straight to the socket instead of copying it into
// Header. The caller must Close a non-nil Payload exactly once.
type Result struct {
	Header  []byte
	Payload *bufpool.Slice
}

// wrapResult lifts a plain (body, err) handler result into a Result,
// the shape every procedure but READ produces.
func wrapResult(body []byte, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Header: body}, nil
}

// Program and Version are the RPC program/version this package answers
// for (RFC 1813 §2.2).
const (
	Program uint32 = 100003
	Version uint32 = 3
)

// Procedure numbers (RFC 1813 §3.3), in dispatch order.
const (
	ProcNull        uint32 = 0
	ProcGetAttr     uint32 = 1
	ProcSetAttr     uint32 = 2
	ProcLookup      uint32 = 3
	ProcAccess      uint32 = 4
	ProcReadLink    uint32 = 5
	ProcRead        uint32 = 6
	ProcWrite       uint32 = 7
	ProcCreate      uint32 = 8
	ProcMkdir       uint32 = 9
	ProcSymlink     uint32 = 10
	ProcMknod       uint32 = 11
	ProcRemove      uint32 = 12
	ProcRmdir       uint32 = 13
	ProcRename      uint32 = 14
	ProcLink        uint32 = 15
	ProcReadDir     uint32 = 16
	ProcReadDirPlus uint32 = 17
	ProcFsStat      uint32 = 18
	ProcFsInfo      uint32 = 19
	ProcPathConf    uint32 = 20
	ProcCommit      uint32 = 21
)

// ErrProcUnavail is returned by Dispatch for a procedure number this
// program/version does not define.
type ErrProcUnavail struct{ Procedure uint32 }

func (e *ErrProcUnavail) Error() string {
	return fmt.Sprintf("nfs3: procedure %d not implemented", e.Procedure)
}

// Dispatch decodes and executes one NFSv3 call, returning the dispatched
// Result (ready to splice after accept_stat via rpc.MakeSuccessReply, or
// to stream via rpc.MakeSuccessReplyHeader when Payload is set) or an
// error. A decode error from internal/xdr (including ErrNeedMore)
// propagates unwrapped so the session engine can distinguish "needs more
// bytes" from "arguments are garbage" (anything else becomes
// GARBAGE_ARGS); *ErrProcUnavail specifically signals PROC_UNAVAIL.
//
// WRITE is handled here only as a fallback path (used by tests and any
// caller that already has the whole fragment buffered as a flat []byte);
// the session engine's real connection path intercepts WRITE before
// calling Dispatch so the bulk payload is read straight into pool memory
// instead of through this decoder's own heap copy (see
// internal/session/connection.go and DecodeWriteHeader/FinishWrite).
func Dispatch(ctx context.Context, fs vfs.Vfs, pool *bufpool.Pool, procedure uint32, args []byte) (Result, error) {
	d := xdr.NewDecoder(args)

	switch procedure {
	case ProcNull:
		return wrapResult(Null(ctx, fs))
	case ProcGetAttr:
		return wrapResult(GetAttr(ctx, fs, d))
	case ProcSetAttr:
		return wrapResult(SetAttr(ctx, fs, d))
	case ProcLookup:
		return wrapResult(Lookup(ctx, fs, d))
	case ProcAccess:
		return wrapResult(Access(ctx, fs, d))
	case ProcReadLink:
		return wrapResult(ReadLink(ctx, fs, d))
	case ProcRead:
		return Read(ctx, fs, pool, d)
	case ProcWrite:
		return Write(ctx, fs, d)
	case ProcCreate:
		return wrapResult(Create(ctx, fs, d))
	case ProcMkdir:
		return wrapResult(MakeDir(ctx, fs, d))
	case ProcSymlink:
		return wrapResult(MakeSymlink(ctx, fs, d))
	case ProcMknod:
		return wrapResult(MakeNode(ctx, fs, d))
	case ProcRemove:
		return wrapResult(Remove(ctx, fs, d))
	case ProcRmdir:
		return wrapResult(RemoveDir(ctx, fs, d))
	case ProcRename:
		return wrapResult(Rename(ctx, fs, d))
	case ProcLink:
		return wrapResult(Link(ctx, fs, d))
	case ProcReadDir:
		return wrapResult(ReadDir(ctx, fs, d))
	case ProcReadDirPlus:
		return wrapResult(ReadDirPlus(ctx, fs, d))
	case ProcFsStat:
		return wrapResult(FsStat(ctx, fs, d))
	case ProcFsInfo:
		return wrapResult(FsInfo(ctx, fs, d))
	case ProcPathConf:
		return wrapResult(PathConf(ctx, fs, d))
	case ProcCommit:
		return wrapResult(Commit(ctx, fs, d))
	default:
		return Result{}, &ErrProcUnavail{Procedure: procedure}
	}
}
