// Package nlm sketches the Network Lock Manager (NLM) protocol surface
// this core would need to support byte-range advisory locking (the
// companion RPC program NFSv3 clients fall back to for flock/fcntl
// locking, since NFSv3 itself carries no lock operations). It defines
// the wire vocabulary and a Service interface; no handler here does
// real locking; every method returns ErrNotImplemented.
package nlm

import (
	"context"
	"errors"
)

// Program and Version are NLM's RPC program/version. NLM4 runs over the
// same RPC/XDR machinery as NFS and MOUNT but is versioned and
// registered independently.
const (
	Program uint32 = 100021
	Version uint32 = 4
)

// NetobjSize bounds the opaque "owner" handle a client uses to identify
// itself to the lock manager across calls.
const NetobjSize = 8

// MaxClientNameLen bounds the human-readable client name carried in a
// LockRequest.
const MaxClientNameLen = 255

// ErrNotImplemented is returned by every Service method; this package
// exists to carry the protocol's shape, not to serve it.
var ErrNotImplemented = errors.New("nlm: not implemented")

// Stat is the nlm4_stats wire enumeration.
type Stat uint32

const (
	// Granted indicates the call completed successfully.
	Granted Stat = iota
	// Denied indicates the request failed.
	Denied
	// DeniedNoLocks indicates the server could not allocate the
	// resources needed to process the request.
	DeniedNoLocks
	// Blocked indicates the request cannot be granted immediately; the
	// server will call back with NLM_GRANTED when it can be.
	Blocked
	// DeniedGracePeriod indicates the server has recently rebooted and
	// is re-establishing existing locks, not yet accepting new ones.
	DeniedGracePeriod
)

// Netobj is an opaque client- or host-identifying handle, always
// NetobjSize bytes on the wire.
type Netobj [NetobjSize]byte

// Holder identifies who currently holds a lock, returned by NLM_TEST
// when a conflicting lock exists.
type Holder struct {
	Exclusive    bool
	PID          uint32
	Owner        Netobj
	LockedOffset uint64
	LockedLen    uint64
}

// LockRequest is the argument shape shared by NLM_TEST, NLM_LOCK,
// NLM_CANCEL, and NLM_UNLOCK.
type LockRequest struct {
	ClientName   string
	Handle       []byte // the NFS file handle being locked
	Owner        Netobj
	PID          uint32
	LockedOffset uint64
	LockedLen    uint64
}

// LockResult is returned by every lock-mutating call except NLM_TEST.
type LockResult struct {
	Cookie Netobj
	Status Stat
}

// TestResult is NLM_TEST's result: either Granted, or Denied with the
// conflicting Holder filled in.
type TestResult struct {
	Cookie Netobj
	Status Stat
	Holder *Holder
}

// Service is the lock-manager capability set an NFS server wires up
// alongside its Vfs backend to answer NLM calls on file handles that
// backend issues. None of this core's components implement it; it
// documents the shape a future advisory-locking backend would fill in.
type Service interface {
	Test(ctx context.Context, req LockRequest, exclusive bool) (TestResult, error)
	Lock(ctx context.Context, req LockRequest, exclusive, reclaim bool) (LockResult, error)
	Cancel(ctx context.Context, req LockRequest, exclusive bool) (LockResult, error)
	Unlock(ctx context.Context, req LockRequest) (LockResult, error)
}

// Unimplemented is a Service that rejects every call with
// ErrNotImplemented, standing in until a real lock manager exists.
type Unimplemented struct{}

var _ Service = Unimplemented{}

func (Unimplemented) Test(ctx context.Context, req LockRequest, exclusive bool) (TestResult, error) {
	return TestResult{}, ErrNotImplemented
}

func (Unimplemented) Lock(ctx context.Context, req LockRequest, exclusive, reclaim bool) (LockResult, error) {
	return LockResult{}, ErrNotImplemented
}

func (Unimplemented) Cancel(ctx context.Context, req LockRequest, exclusive bool) (LockResult, error) {
	return LockResult{}, ErrNotImplemented
}

func (Unimplemented) Unlock(ctx context.Context, req LockRequest) (LockResult, error) {
	return LockResult{}, ErrNotImplemented
}
