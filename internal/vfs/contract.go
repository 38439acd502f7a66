package vfs

import "context"

// Vfs is the capability set every backend must implement. Every method
// is independent and non-blocking with respect to the others — the
// session engine may have several in flight on the same connection.
//
// Every method returns either a typed success value or an *NfsError; no
// method panics.
type Vfs interface {
	Null(ctx context.Context) error

	GetAttr(ctx context.Context, h Handle) (FileAttr, error)
	SetAttr(ctx context.Context, h Handle, attr SetAttr) (WccData, error)

	Lookup(ctx context.Context, dir Handle, name string) (LookupResult, WccData, error)
	Access(ctx context.Context, h Handle, mask AccessMask) (AccessMask, FileAttr, error)
	ReadLink(ctx context.Context, h Handle) (string, FileAttr, error)

	// Read fills dst (one or more segments, concatenated logically) from
	// offset and returns how many bytes were actually placed. Segments let
	// the caller hand over pool-backed memory directly, so a READ reply's
	// payload never has to pass through an intermediate heap copy.
	Read(ctx context.Context, h Handle, offset uint64, dst [][]byte) (n int, eof bool, attr FileAttr, err error)
	// Write stores the concatenation of data's segments starting at
	// offset. Segments let the caller hand over pool-backed WRITE payload
	// memory directly instead of first flattening it onto the heap.
	Write(ctx context.Context, h Handle, offset uint64, data [][]byte, mode WriteMode) (count uint32, committed WriteMode, verifier StableVerifier, wcc WccData, err error)

	Create(ctx context.Context, dir Handle, name string, req CreateRequest) (CreatedNode, error)
	MakeDir(ctx context.Context, dir Handle, name string, attr SetAttr) (CreatedNode, error)
	MakeSymlink(ctx context.Context, dir Handle, name string, target string, attr SetAttr) (CreatedNode, error)
	MakeNode(ctx context.Context, dir Handle, name string, node SpecialNode, attr SetAttr) (CreatedNode, error)

	Remove(ctx context.Context, dir Handle, name string) (WccData, error)
	RemoveDir(ctx context.Context, dir Handle, name string) (WccData, error)
	Rename(ctx context.Context, fromDir Handle, fromName string, toDir Handle, toName string) (fromWcc, toWcc WccData, err error)
	Link(ctx context.Context, h Handle, dir Handle, name string) (fileWcc, dirWcc WccData, err error)

	ReadDir(ctx context.Context, dir Handle, cookie DirectoryCookie, verifier CookieVerifier, maxBytes uint32) (entries []DirEntry, newVerifier CookieVerifier, eof bool, attr FileAttr, err error)
	ReadDirPlus(ctx context.Context, dir Handle, cookie DirectoryCookie, verifier CookieVerifier, maxBytes, maxHandles uint32) (entries []DirEntryPlus, newVerifier CookieVerifier, eof bool, attr FileAttr, err error)

	FsStat(ctx context.Context, h Handle) (FsStat, FileAttr, error)
	FsInfo(ctx context.Context, h Handle) (FsInfo, FileAttr, error)
	PathConf(ctx context.Context, h Handle) (PathConf, FileAttr, error)

	Commit(ctx context.Context, h Handle, offset uint64, count uint32) (verifier StableVerifier, wcc WccData, err error)
}
