// Package memory implements an in-memory vfs.Vfs backend: the default
// backend this core ships for tests and for `nfsd3 serve` when no other
// storage is configured. It has no persistence and no concurrency control
// beyond a single mutex — everything a real backend (a host-filesystem
// shadow, a database-backed store) would have to get right on its own.
//
// Unlike the Rust prototype this core's spec was distilled from (whose
// in-memory backend is an unimplemented stub), every vfs.Vfs method here
// is a complete implementation: the stub only supplied the shape of the
// data model (Entry/EntryKind, default_attr, apply_attr), not behavior.
package memory

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// rootFileid is the fileid of the filesystem root, handed out once at
// Backend construction and never reused.
const rootFileid uint64 = 1

// contentDir is the afero path prefix backing regular-file byte content.
// Content is addressed by fileid rather than mirrored into a path tree, so
// renaming a directory entry never touches stored bytes.
const contentDir = "/content"

// node is one filesystem object: its attributes, its parent-directory
// linkage, and (for directories) its children. Regular-file byte content
// lives in the backing afero.Fs, addressed by fileid; every other field
// needed for FileAttr lives here.
type node struct {
	fileid   uint64
	ftype    vfs.FileType
	mode     uint32
	uid, gid uint32
	nlink    uint32
	rdev     vfs.DeviceNumber
	atime    vfs.FileTime
	mtime    vfs.FileTime
	ctime    vfs.FileTime
	size     uint64 // authoritative only for non-regular types; regular file size comes from afero stat

	linkTarget string // symlinks only

	parent uint64
	name   string // leaf name within parent; "" for root

	children map[string]uint64 // directories only: name -> fileid
	cookieGen uint64           // bumped whenever this directory's children change

	createVerifier *vfs.CreateVerifier // set for a file created via CreateMode Exclusive
}

// Backend is the in-memory vfs.Vfs implementation.
type Backend struct {
	mu sync.RWMutex

	fs afero.Fs

	nodes      map[uint64]*node
	nextFileid uint64

	fsid           uint64
	stableVerifier vfs.StableVerifier
}

// New constructs a Backend with a single root directory and a stable
// write verifier seeded from a fresh UUID, matching the teacher's use of
// google/uuid for instance identity elsewhere in the stack.
func New() *Backend {
	seed := uuid.New()

	root := &node{
		fileid:   rootFileid,
		ftype:    vfs.TypeDirectory,
		mode:     0o755,
		nlink:    1,
		children: make(map[string]uint64),
	}
	now := vfs.FromTime(time.Now())
	root.atime, root.mtime, root.ctime = now, now, now

	b := &Backend{
		fs:         afero.NewMemMapFs(),
		nodes:      map[uint64]*node{rootFileid: root},
		nextFileid: rootFileid + 1,
		fsid:       1,
	}
	copy(b.stableVerifier[:], seed[:8])
	return b
}

// RootHandle returns the handle of the filesystem root, the value
// internal/mountd's Registry hands back from a successful MNT.
func (b *Backend) RootHandle() vfs.Handle {
	return idToHandle(rootFileid)
}

func idToHandle(id uint64) vfs.Handle {
	var h vfs.Handle
	binary.LittleEndian.PutUint64(h[:], id)
	return h
}

func handleToID(h vfs.Handle) (uint64, error) {
	id := binary.LittleEndian.Uint64(h[:])
	if id == 0 {
		return 0, vfs.New(vfs.BadHandle)
	}
	return id, nil
}

// lookupNode returns the node for a handle, or Stale if it has been
// removed (or never existed under this server instance).
func (b *Backend) lookupNode(h vfs.Handle) (*node, error) {
	id, err := handleToID(h)
	if err != nil {
		return nil, err
	}
	n, ok := b.nodes[id]
	if !ok {
		return nil, vfs.New(vfs.Stale)
	}
	return n, nil
}

func (b *Backend) contentPath(id uint64) string {
	return fmt.Sprintf("%s/%d", contentDir, id)
}

// attrOf builds the wire FileAttr for a node, resolving regular-file size
// from the backing afero.Fs since that is the authoritative byte count.
func (b *Backend) attrOf(n *node) vfs.FileAttr {
	size, used := n.size, n.size
	if n.ftype == vfs.TypeRegular {
		if fi, err := b.fs.Stat(b.contentPath(n.fileid)); err == nil {
			size = uint64(fi.Size())
			used = size
		}
	}
	return vfs.FileAttr{
		Type:   n.ftype,
		Mode:   n.mode,
		Nlink:  n.nlink,
		UID:    n.uid,
		GID:    n.gid,
		Size:   size,
		Used:   used,
		Rdev:   n.rdev,
		Fsid:   b.fsid,
		Fileid: n.fileid,
		Atime:  n.atime,
		Mtime:  n.mtime,
		Ctime:  n.ctime,
	}
}

// defaultMode returns the initial st_mode for a newly created node: the
// POSIX file-type bits for t (S_IFDIR, S_IFREG, ...) or'd with a
// permissive default permission mask.
func defaultMode(t vfs.FileType) uint32 {
	if t == vfs.TypeDirectory {
		return vfs.PosixTypeBits(t) | 0o755
	}
	return vfs.PosixTypeBits(t) | 0o644
}

func (b *Backend) newNode(ftype vfs.FileType, parent uint64, name string) *node {
	id := b.nextFileid
	b.nextFileid++
	now := vfs.FromTime(time.Now())
	n := &node{
		fileid: id,
		ftype:  ftype,
		mode:   defaultMode(ftype),
		nlink:  1,
		parent: parent,
		name:   name,
		atime:  now,
		mtime:  now,
		ctime:  now,
	}
	if ftype == vfs.TypeDirectory {
		n.children = make(map[string]uint64)
	}
	b.nodes[id] = n
	return n
}

// applySetAttr mutates n in place per the independently-optional SetAttr
// fields, matching the semantics the Rust prototype's apply_attr sketches
// (mode/uid/gid/size overwrite when present; atime/mtime follow the
// DontChange/ServerCurrent/ClientProvided tri-state); ctime always
// advances to "now" on any successful SETATTR.
func (b *Backend) applySetAttr(n *node, attr vfs.SetAttr) error {
	now := vfs.FromTime(time.Now())

	if attr.Guard.Check {
		if attr.Guard.Ctime != n.ctime {
			return vfs.New(vfs.NotSync)
		}
	}

	if attr.Mode != nil {
		n.mode = *attr.Mode
	}
	if attr.UID != nil {
		n.uid = *attr.UID
	}
	if attr.GID != nil {
		n.gid = *attr.GID
	}
	if attr.Size != nil {
		if n.ftype != vfs.TypeRegular {
			return vfs.New(vfs.Inval)
		}
		f, err := b.fs.OpenFile(b.contentPath(n.fileid), os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return vfs.New(vfs.Io)
		}
		err = f.Truncate(int64(*attr.Size))
		f.Close()
		if err != nil {
			return vfs.New(vfs.Io)
		}
	}

	switch attr.Atime.Mode {
	case vfs.ServerCurrent:
		n.atime = now
	case vfs.ClientProvided:
		n.atime = attr.Atime.Value
	}
	switch attr.Mtime.Mode {
	case vfs.ServerCurrent:
		n.mtime = now
	case vfs.ClientProvided:
		n.mtime = attr.Mtime.Value
	}
	n.ctime = now
	return nil
}

// Null handles a liveness probe; the in-memory backend has nothing to
// check.
func (b *Backend) Null(ctx context.Context) error { return nil }

// GetAttr handles NFSPROC3_GETATTR.
func (b *Backend) GetAttr(ctx context.Context, h vfs.Handle) (vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return vfs.FileAttr{}, err
	}
	return b.attrOf(n), nil
}

// SetAttr handles NFSPROC3_SETATTR.
func (b *Backend) SetAttr(ctx context.Context, h vfs.Handle, attr vfs.SetAttr) (vfs.WccData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return vfs.WccData{}, err
	}
	before := vfs.DigestOf(b.attrOf(n))
	if err := b.applySetAttr(n, attr); err != nil {
		return vfs.WccData{Before: &before}, err
	}
	after := b.attrOf(n)
	return vfs.WccData{Before: &before, After: &after}, nil
}

func sortedNames(children map[string]uint64) []string {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
