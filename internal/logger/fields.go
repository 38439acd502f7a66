package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across internal/session,
// internal/nfs3, internal/mountd, and internal/backend/memory. Use these
// keys consistently so log lines stay greppable across packages.
const (
	// ========================================================================
	// RPC envelope
	// ========================================================================
	KeyProgram   = "program"   // ONC RPC program number (100003 nfs, 100005 mountd)
	KeyProcedure = "procedure" // Procedure name or number
	KeyXID       = "xid"       // RPC transaction ID
	KeyAuth      = "auth"      // Auth flavor (AUTH_NONE, AUTH_SYS)

	// ========================================================================
	// Filesystem objects
	// ========================================================================
	KeyHandle = "handle" // File handle (opaque identifier, logged as hex)
	KeyName   = "name"   // Directory entry name
	KeyType   = "type"   // File type
	KeySize   = "size"   // File size in bytes
	KeyMode   = "mode"   // File mode/permissions

	// ========================================================================
	// I/O operations
	// ========================================================================
	KeyOffset       = "offset"        // File offset for read/write/commit
	KeyCount        = "count"         // Byte count requested
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyEOF          = "eof"           // End of file indicator
	KeyStable       = "stable"        // Write durability level

	// ========================================================================
	// Directory operations
	// ========================================================================
	KeyEntries = "entries" // Number of directory entries returned
	KeyCookie  = "cookie"  // READDIR continuation cookie

	// ========================================================================
	// Client identification
	// ========================================================================
	KeyClientAddr = "client_addr" // Client network address
	KeyClientHost = "client_host" // Client hostname, as used by mountd's registry
	KeyUID        = "uid"         // AUTH_SYS UID
	KeyGID        = "gid"         // AUTH_SYS GID

	// ========================================================================
	// Session & connection
	// ========================================================================
	KeyConnectionID = "connection_id" // Connection identifier, assigned at accept time
	KeyInstanceID   = "instance_id"   // Server instance id (feeds the stable write verifier)

	// ========================================================================
	// Status and errors
	// ========================================================================
	KeyStatus    = "status"     // nfsstat3/mountstat3 numeric status
	KeyError     = "error"      // Error message
	KeyErrorCode = "error_code" // vfs.ErrorCode name

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
)

// ----------------------------------------------------------------------------
// RPC envelope
// ----------------------------------------------------------------------------

// Program returns a slog.Attr for an ONC RPC program number.
func Program(p uint32) slog.Attr {
	return slog.Any(KeyProgram, p)
}

// Procedure returns a slog.Attr for a procedure name.
func Procedure(name string) slog.Attr {
	return slog.String(KeyProcedure, name)
}

// XID returns a slog.Attr for an RPC transaction ID, formatted as hex to
// match how clients and tcpdump report it.
func XID(xid uint32) slog.Attr {
	return slog.String(KeyXID, fmt.Sprintf("0x%x", xid))
}

// Auth returns a slog.Attr for an RPC auth flavor.
func Auth(flavor uint32) slog.Attr {
	return slog.Any(KeyAuth, flavor)
}

// ----------------------------------------------------------------------------
// Filesystem objects
// ----------------------------------------------------------------------------

// Handle returns a slog.Attr for a file handle, formatted as hex.
func Handle(h []byte) slog.Attr {
	return slog.String(KeyHandle, fmt.Sprintf("%x", h))
}

// Name returns a slog.Attr for a directory entry name.
func Name(name string) slog.Attr {
	return slog.String(KeyName, name)
}

// Type returns a slog.Attr for a file type.
func Type(t string) slog.Attr {
	return slog.String(KeyType, t)
}

// Size returns a slog.Attr for file size.
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// Mode returns a slog.Attr for file mode/permissions.
func Mode(m uint32) slog.Attr {
	return slog.Any(KeyMode, m)
}

// ----------------------------------------------------------------------------
// I/O operations
// ----------------------------------------------------------------------------

// Offset returns a slog.Attr for a file offset.
func Offset(off uint64) slog.Attr {
	return slog.Uint64(KeyOffset, off)
}

// Count returns a slog.Attr for a byte count.
func Count(c uint32) slog.Attr {
	return slog.Any(KeyCount, c)
}

// BytesRead returns a slog.Attr for actual bytes read.
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written.
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// EOF returns a slog.Attr for an end-of-file indicator.
func EOF(eof bool) slog.Attr {
	return slog.Bool(KeyEOF, eof)
}

// Stable returns a slog.Attr for a write durability level.
func Stable(s int) slog.Attr {
	return slog.Int(KeyStable, s)
}

// ----------------------------------------------------------------------------
// Directory operations
// ----------------------------------------------------------------------------

// Entries returns a slog.Attr for a count of directory entries.
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// Cookie returns a slog.Attr for a READDIR cookie.
func Cookie(c uint64) slog.Attr {
	return slog.Uint64(KeyCookie, c)
}

// ----------------------------------------------------------------------------
// Client identification
// ----------------------------------------------------------------------------

// ClientAddr returns a slog.Attr for a client network address.
func ClientAddr(addr string) slog.Attr {
	return slog.String(KeyClientAddr, addr)
}

// ClientHost returns a slog.Attr for a client hostname.
func ClientHost(host string) slog.Attr {
	return slog.String(KeyClientHost, host)
}

// UID returns a slog.Attr for an AUTH_SYS UID.
func UID(uid uint32) slog.Attr {
	return slog.Any(KeyUID, uid)
}

// GID returns a slog.Attr for an AUTH_SYS GID.
func GID(gid uint32) slog.Attr {
	return slog.Any(KeyGID, gid)
}

// ----------------------------------------------------------------------------
// Session & connection
// ----------------------------------------------------------------------------

// ConnectionID returns a slog.Attr for a connection identifier.
func ConnectionID(id uint64) slog.Attr {
	return slog.Uint64(KeyConnectionID, id)
}

// InstanceID returns a slog.Attr for the server instance id.
func InstanceID(id string) slog.Attr {
	return slog.String(KeyInstanceID, id)
}

// ----------------------------------------------------------------------------
// Status and errors
// ----------------------------------------------------------------------------

// Status returns a slog.Attr for a numeric wire status.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a vfs.ErrorCode name.
func ErrorCode(name string) slog.Attr {
	return slog.String(KeyErrorCode, name)
}

// ----------------------------------------------------------------------------
// Operation metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
