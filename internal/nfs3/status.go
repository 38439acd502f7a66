// Package nfs3 implements the NFSv3 procedure layer (RFC 1813 §3): the
// wire-level argument/result structures for all 22 NFSPROC3_* procedures
// and the dispatch table that decodes a call body, invokes a vfs.Vfs, and
// encodes the result. It owns no transport or session state; internal/rpc
// and internal/session carry this package's output over the wire.
package nfs3

import "github.com/go-nfsd/nfsd3/internal/vfs"

// Status is the wire nfsstat3 enumeration (RFC 1813 §2.6).
type Status uint32

const (
	StatusOK             Status = 0
	StatusPerm           Status = 1
	StatusNoEnt          Status = 2
	StatusIO             Status = 5
	StatusNxIo           Status = 6
	StatusAccess         Status = 13
	StatusExist          Status = 17
	StatusXDev           Status = 18
	StatusNoDev          Status = 19
	StatusNotDir         Status = 20
	StatusIsDir          Status = 21
	StatusInval          Status = 22
	StatusFBig           Status = 27
	StatusNoSpc          Status = 28
	StatusRoFs           Status = 30
	StatusMlink          Status = 31
	StatusNameTooLong    Status = 63
	StatusNotEmpty       Status = 66
	StatusDQuot          Status = 69
	StatusStale          Status = 70
	StatusRemote         Status = 71
	StatusBadHandle      Status = 10001
	StatusNotSync        Status = 10002
	StatusBadCookie      Status = 10003
	StatusNotSupp        Status = 10004
	StatusTooSmall       Status = 10005
	StatusServerFault    Status = 10006
	StatusBadType        Status = 10007
	StatusJukebox        Status = 10008
)

// statusOf maps the closed vfs.ErrorCode taxonomy onto nfsstat3. A nil
// error maps to StatusOK; any other error (one not produced as a
// *vfs.NfsError) maps conservatively to StatusServerFault.
func statusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch vfs.CodeOf(err) {
	case vfs.Perm:
		return StatusPerm
	case vfs.NoEnt:
		return StatusNoEnt
	case vfs.Io:
		return StatusIO
	case vfs.NxIo:
		return StatusNxIo
	case vfs.Access:
		return StatusAccess
	case vfs.Exist:
		return StatusExist
	case vfs.XDev:
		return StatusXDev
	case vfs.Nodev:
		return StatusNoDev
	case vfs.NotDir:
		return StatusNotDir
	case vfs.IsDir:
		return StatusIsDir
	case vfs.Inval:
		return StatusInval
	case vfs.FBig:
		return StatusFBig
	case vfs.NoSpc:
		return StatusNoSpc
	case vfs.RoFs:
		return StatusRoFs
	case vfs.MLink:
		return StatusMlink
	case vfs.NameTooLong:
		return StatusNameTooLong
	case vfs.NotEmpty:
		return StatusNotEmpty
	case vfs.DQuot:
		return StatusDQuot
	case vfs.Stale:
		return StatusStale
	case vfs.Remote:
		return StatusRemote
	case vfs.BadHandle:
		return StatusBadHandle
	case vfs.NotSync:
		return StatusNotSync
	case vfs.BadCookie:
		return StatusBadCookie
	case vfs.NotSupp:
		return StatusNotSupp
	case vfs.TooSmall:
		return StatusTooSmall
	case vfs.ServerFault:
		return StatusServerFault
	case vfs.BadType:
		return StatusBadType
	case vfs.Jukebox:
		return StatusJukebox
	default:
		return StatusServerFault
	}
}
