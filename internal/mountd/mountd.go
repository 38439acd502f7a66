// Package mountd implements the MOUNT protocol (RFC 1813 §5): the
// bootstrap RPC program a client speaks once, before ever issuing an
// NFSv3 call, to trade a server-relative export path for the root file
// handle it will use for every subsequent LOOKUP. It shares nothing with
// internal/nfs3 beyond the RPC envelope, matching the two protocols'
// separate ONC RPC program numbers.
package mountd

import "github.com/go-nfsd/nfsd3/internal/vfs"

// Program and Version are this package's RPC program/version (RFC 1813
// §5.1).
const (
	Program uint32 = 100005
	Version uint32 = 3
)

// Procedure numbers (RFC 1813 §5.2).
const (
	ProcNull    uint32 = 0
	ProcMnt     uint32 = 1
	ProcDump    uint32 = 2
	ProcUmnt    uint32 = 3
	ProcUmntAll uint32 = 4
	ProcExport  uint32 = 5
)

// MaxPathLen and MaxNameLen bound dirpath/name fields (RFC 1813 §5.1).
const (
	MaxPathLen = 1024
	MaxNameLen = 255
)

// Status is the wire mountstat3 enumeration (RFC 1813 §5.1.5).
type Status uint32

const (
	StatusOK           Status = 0
	StatusPerm         Status = 1
	StatusNoEnt        Status = 2
	StatusIO           Status = 5
	StatusAccess       Status = 13
	StatusNotDir       Status = 20
	StatusInval        Status = 22
	StatusNameTooLong  Status = 63
	StatusNotSupp      Status = 10004
	StatusServerFault  Status = 10006
)

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
	case vfs.Access:
		return StatusAccess
	case vfs.NotDir:
		return StatusNotDir
	case vfs.Inval:
		return StatusInval
	case vfs.NameTooLong:
		return StatusNameTooLong
	case vfs.NotSupp:
		return StatusNotSupp
	default:
		return StatusServerFault
	}
}

// MountEntry is one flattened mountlist/mountbody record: a client
// hostname paired with the export path it currently has mounted. DUMP
// reconstructs the wire's "ml_next" linked-list chaining only at encode
// time, matching how internal/nfs3 flattens READDIR's chained entries.
type MountEntry struct {
	Hostname  string
	Directory string
}

// Export is one flattened exportnode record: an export path and the
// client groups advertised for it. Whether Mount checks a client against
// the groups is up to the Registry; internal/backend/memory does not.
type Export struct {
	Directory string
	Groups    []string
}

// Registry is the bookkeeping a MOUNT server needs beyond the Vfs
// contract: the set of paths this server exports, and (for DUMP/UMNT)
// which clients currently have one mounted. A real deployment backs this
// with something persistent; the in-memory backend keeps it in a mutex-
// guarded map, matching the scale of internal/backend/memory itself.
type Registry interface {
	// Mount resolves a dirpath to its root handle, recording the client
	// as having it mounted. Inval means the path is not exported.
	Mount(clientHost, path string) (vfs.Handle, error)
	// Unmount forgets that clientHost has path mounted. Unmounting a
	// path that was never mounted is not an error (RFC 1813 §5.2.3).
	Unmount(clientHost, path string)
	// UnmountAll forgets every mount clientHost holds.
	UnmountAll(clientHost string)
	// Dump lists every currently recorded (host, path) mount.
	Dump() []MountEntry
	// Exports lists every exported path and its advertised groups.
	Exports() []Export
}
