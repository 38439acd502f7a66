package vfs

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed NFSv3 status taxonomy. Every Vfs operation
// returns exactly one of these on failure, never a bare Go error, so the
// protocol layer can map it to the wire nfsstat3 without guessing.
type ErrorCode int

const (
	Perm ErrorCode = iota + 1
	NoEnt
	Io
	NxIo
	Access
	Exist
	XDev
	Nodev
	NotDir
	IsDir
	Inval
	FBig
	NoSpc
	RoFs
	MLink
	NameTooLong
	NotEmpty
	DQuot
	Stale
	Remote
	BadHandle
	NotSync
	BadCookie
	NotSupp
	TooSmall
	ServerFault
	BadType
	Jukebox
)

func (c ErrorCode) String() string {
	switch c {
	case Perm:
		return "Perm"
	case NoEnt:
		return "NoEnt"
	case Io:
		return "Io"
	case NxIo:
		return "NxIo"
	case Access:
		return "Access"
	case Exist:
		return "Exist"
	case XDev:
		return "XDev"
	case Nodev:
		return "Nodev"
	case NotDir:
		return "NotDir"
	case IsDir:
		return "IsDir"
	case Inval:
		return "Inval"
	case FBig:
		return "FBig"
	case NoSpc:
		return "NoSpc"
	case RoFs:
		return "RoFs"
	case MLink:
		return "MLink"
	case NameTooLong:
		return "NameTooLong"
	case NotEmpty:
		return "NotEmpty"
	case DQuot:
		return "DQuot"
	case Stale:
		return "Stale"
	case Remote:
		return "Remote"
	case BadHandle:
		return "BadHandle"
	case NotSync:
		return "NotSync"
	case BadCookie:
		return "BadCookie"
	case NotSupp:
		return "NotSupp"
	case TooSmall:
		return "TooSmall"
	case ServerFault:
		return "ServerFault"
	case BadType:
		return "BadType"
	case Jukebox:
		return "Jukebox"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// NfsError is the error type every Vfs operation returns on failure. Path
// is optional context for logging (e.g. the handle or name involved) and
// is never part of equality checks against a bare ErrorCode.
type NfsError struct {
	Code ErrorCode
	Path string
}

func (e *NfsError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("vfs: %s", e.Code)
	}
	return fmt.Sprintf("vfs: %s: %s", e.Code, e.Path)
}

// New constructs an NfsError with no path context.
func New(code ErrorCode) *NfsError { return &NfsError{Code: code} }

// Newf constructs an NfsError carrying a path for logging.
func Newf(code ErrorCode, path string) *NfsError { return &NfsError{Code: code, Path: path} }

// CodeOf extracts the ErrorCode from err, defaulting to ServerFault for
// any error that did not originate from this package — a backend that
// returns a bare Go error (a bug) must not crash the server, but it also
// must not be silently reported as a specific NFS condition it didn't
// actually signal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var nfsErr *NfsError
	if errors.As(err, &nfsErr) {
		return nfsErr.Code
	}
	return ServerFault
}
