// Package vfs defines the storage-agnostic contract that every backend
// must satisfy: stable file identifiers, attribute/WCC semantics,
// directory cookie stability, write stability levels, and the error
// taxonomy. Nothing in this package talks XDR or RPC; internal/nfs3 maps
// these types onto the wire.
package vfs

import "time"

// HandleLen is this server's fixed file-handle width. RFC 1813 allows up
// to 64 bytes; this core fixes it at 8 for the lifetime of the server, a
// stable local convention rather than a protocol requirement.
const HandleLen = 8

// Handle is an opaque, fixed-width object identifier. It never changes
// for the life of an object; once the object is removed the handle
// becomes Stale.
type Handle [HandleLen]byte

// FileType enumerates the NFSv3 object types.
type FileType uint32

const (
	TypeRegular FileType = iota + 1
	TypeDirectory
	TypeBlockDevice
	TypeCharDevice
	TypeSymlink
	TypeSocket
	TypeFIFO
)

// FileTime is a (seconds, nanoseconds) timestamp since the Unix epoch,
// matching the wire's nfstime3.
type FileTime struct {
	Seconds  uint32
	Nseconds uint32
}

// FromTime converts a time.Time to the wire timestamp shape.
func FromTime(t time.Time) FileTime {
	return FileTime{Seconds: uint32(t.Unix()), Nseconds: uint32(t.Nanosecond())}
}

// DeviceNumber is the (major, minor) pair meaningful only for device
// special files.
type DeviceNumber struct {
	Major uint32
	Minor uint32
}

// FileAttr is the full attribute set for a filesystem object.
type FileAttr struct {
	Type   FileType
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Used   uint64
	Rdev   DeviceNumber
	Fsid   uint64
	Fileid uint64
	Atime  FileTime
	Mtime  FileTime
	Ctime  FileTime
}

// AttrDigest is the "before" half of a WCC pair: just enough state
// (size + mtime + ctime) for a client to detect whether its cached
// attributes are still valid.
type AttrDigest struct {
	Size  uint64
	Mtime FileTime
	Ctime FileTime
}

// DigestOf extracts the WCC digest from a full attribute set.
func DigestOf(a FileAttr) AttrDigest {
	return AttrDigest{Size: a.Size, Mtime: a.Mtime, Ctime: a.Ctime}
}

// WccData pairs a pre-operation digest with a post-operation attribute
// set; both halves are optional so a backend that cannot afford to
// snapshot the "before" state may omit it.
type WccData struct {
	Before *AttrDigest
	After  *FileAttr
}

// SetTime expresses one of the three possibilities for an XDR
// set_mtime/set_atime union: leave unchanged, set to the server's clock,
// or set to a client-supplied value.
type SetTimeMode int

const (
	DontChange SetTimeMode = iota
	ServerCurrent
	ClientProvided
)

// SetTime carries the mode and, for ClientProvided, the value.
type SetTime struct {
	Mode  SetTimeMode
	Value FileTime
}

// SetAttrGuard is the optional ctime precondition on SETATTR: if present
// and it does not match the object's current ctime, the operation fails
// with NotSync.
type SetAttrGuard struct {
	Check bool
	Ctime FileTime
}

// SetAttr is a SETATTR request body; every field is independently
// optional.
type SetAttr struct {
	Mode  *uint32
	UID   *uint32
	GID   *uint32
	Size  *uint64
	Atime SetTime
	Mtime SetTime
	Guard SetAttrGuard
}

// AccessMask is a bitmask of ACCESS permission bits (RFC 1813 §3.3.4).
type AccessMask uint32

const (
	AccessRead AccessMask = 1 << iota
	AccessLookup
	AccessModify
	AccessExtend
	AccessDelete
	AccessExecute
)

// WriteMode is the requested (and, symmetrically, the achieved) write
// stability level.
type WriteMode int

const (
	Unstable WriteMode = iota
	DataSync
	FileSync
)

// StableVerifier is the 8-byte token constant for the server instance's
// lifetime, returned from WRITE/COMMIT so a client can detect a restart.
type StableVerifier [8]byte

// CreateVerifier is the 8-byte client-supplied token used by Exclusive
// CREATE to make retries idempotent.
type CreateVerifier [8]byte

// CreateMode selects CREATE's clobber/guard/idempotent-exclusive
// semantics.
type CreateMode int

const (
	Unchecked CreateMode = iota
	Guarded
	Exclusive
)

// CreateRequest bundles a CREATE call's mode-specific payload.
type CreateRequest struct {
	Mode     CreateMode
	Attr     SetAttr        // Unchecked / Guarded
	Verifier CreateVerifier // Exclusive
}

// SpecialNode describes a MKNOD target: Type is TypeBlockDevice,
// TypeCharDevice, TypeSocket or TypeFIFO, and Rdev is meaningful only for
// the two device types.
type SpecialNode struct {
	Type FileType
	Rdev DeviceNumber
}

// DirectoryCookie is an opaque per-entry position token. Cookie 0 always
// means "from the beginning".
type DirectoryCookie uint64

// CookieVerifier pairs with a non-zero cookie to detect that the
// directory has not changed shape since the cookie was issued.
type CookieVerifier [8]byte

// DirEntry is one flattened READDIR entry (never materialized as a
// linked list in memory, per the recursive-wire-shape guidance: build
// the slice, let the protocol layer reconstruct the wire's "value
// follows" chaining only at encode time).
type DirEntry struct {
	Fileid uint64
	Name   string
	Cookie DirectoryCookie
}

// DirEntryPlus is a READDIRPLUS entry: a DirEntry plus the child's handle
// and attributes, when the backend was able to resolve them without
// extra cost.
type DirEntryPlus struct {
	DirEntry
	Handle Handle
	Attr   *FileAttr
}

// FsStat mirrors the dynamic filesystem statistics returned by FSSTAT.
type FsStat struct {
	TotalBytes, FreeBytes, AvailBytes    uint64
	TotalFiles, FreeFiles, AvailFiles    uint64
	InvarSec                             uint32
}

// FsInfo mirrors the static filesystem capabilities returned by FSINFO.
type FsInfo struct {
	RtMax, RtPref, RtMult uint32
	WtMax, WtPref, WtMult uint32
	DtPref                uint32
	MaxFileSize           uint64
	TimeDelta             FileTime
	Properties            uint32
}

// FSF properties bits (RFC 1813 §3.3.19).
const (
	FSFLink        uint32 = 0x0001
	FSFSymlink     uint32 = 0x0002
	FSFHomogeneous uint32 = 0x0008
	FSFCanSetTime  uint32 = 0x0010
)

// PathConf mirrors PATHCONF's per-object limits.
type PathConf struct {
	LinkMax        uint32
	NameMax        uint32
	NoTrunc        bool
	ChownRestricted bool
	CaseInsensitive bool
	CasePreserving  bool
}

// LookupResult bundles a resolved handle with its attributes.
type LookupResult struct {
	Handle Handle
	Attr   FileAttr
}

// CreatedNode is the success payload shared by CREATE/MKDIR/SYMLINK/MKNOD.
type CreatedNode struct {
	Handle Handle
	Attr   FileAttr
	Wcc    WccData // parent directory's before/after
}
