package memory

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
)

func (b *Backend) unlink(dir *node, name string) *node {
	id := dir.children[name]
	delete(dir.children, name)
	dir.cookieGen++
	return b.nodes[id]
}

// Remove handles NFSPROC3_REMOVE. Removing a directory through this path
// is rejected with IsDir; RemoveDir is the only way to unlink one.
func (b *Backend) Remove(ctx context.Context, dirHandle vfs.Handle, name string) (vfs.WccData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.WccData{}, err
	}
	childID, exists := dir.children[name]
	if !exists {
		return vfs.WccData{}, vfs.New(vfs.NoEnt)
	}
	child := b.nodes[childID]
	if child.ftype == vfs.TypeDirectory {
		return vfs.WccData{}, vfs.New(vfs.IsDir)
	}

	before := vfs.DigestOf(b.attrOf(dir))
	b.unlink(dir, name)
	b.fs.Remove(b.contentPath(child.fileid))
	delete(b.nodes, child.fileid)
	after := b.attrOf(dir)
	return vfs.WccData{Before: &before, After: &after}, nil
}

// RemoveDir handles NFSPROC3_RMDIR. A non-empty directory is rejected
// with NotEmpty; the root directory can never be removed.
func (b *Backend) RemoveDir(ctx context.Context, dirHandle vfs.Handle, name string) (vfs.WccData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.WccData{}, err
	}
	childID, exists := dir.children[name]
	if !exists {
		return vfs.WccData{}, vfs.New(vfs.NoEnt)
	}
	child := b.nodes[childID]
	if child.ftype != vfs.TypeDirectory {
		return vfs.WccData{}, vfs.New(vfs.NotDir)
	}
	if child.fileid == rootFileid {
		return vfs.WccData{}, vfs.New(vfs.Access)
	}
	if len(child.children) > 0 {
		return vfs.WccData{}, vfs.New(vfs.NotEmpty)
	}

	before := vfs.DigestOf(b.attrOf(dir))
	b.unlink(dir, name)
	delete(b.nodes, child.fileid)
	after := b.attrOf(dir)
	return vfs.WccData{Before: &before, After: &after}, nil
}

// Rename handles NFSPROC3_RENAME. Since every object lives in one flat
// fileid-keyed map regardless of directory, a rename is pure pointer
// rewiring in the two parents' children maps — no content ever moves, and
// a rename can never cross filesystem identity (this backend has exactly
// one fsid), so XDev can never actually occur here.
func (b *Backend) Rename(ctx context.Context, fromDirHandle vfs.Handle, fromName string, toDirHandle vfs.Handle, toName string) (vfs.WccData, vfs.WccData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fromDir, err := b.resolveDir(fromDirHandle)
	if err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}
	toDir, err := b.resolveDir(toDirHandle)
	if err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}
	if err := validName(fromName); err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}
	if err := validName(toName); err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}

	srcID, exists := fromDir.children[fromName]
	if !exists {
		return vfs.WccData{}, vfs.WccData{}, vfs.New(vfs.NoEnt)
	}
	src := b.nodes[srcID]

	fromBefore := vfs.DigestOf(b.attrOf(fromDir))
	toBefore := vfs.DigestOf(b.attrOf(toDir))

	if dstID, exists := toDir.children[toName]; exists {
		dst := b.nodes[dstID]
		if dst.ftype == vfs.TypeDirectory {
			if src.ftype != vfs.TypeDirectory {
				return vfs.WccData{}, vfs.WccData{}, vfs.New(vfs.IsDir)
			}
			if len(dst.children) > 0 {
				return vfs.WccData{}, vfs.WccData{}, vfs.New(vfs.NotEmpty)
			}
		} else if src.ftype == vfs.TypeDirectory {
			return vfs.WccData{}, vfs.WccData{}, vfs.New(vfs.NotDir)
		}
		delete(toDir.children, toName)
		delete(b.nodes, dst.fileid)
	}

	delete(fromDir.children, fromName)
	fromDir.cookieGen++
	b.link(toDir, toName, src)

	fromAfter := b.attrOf(fromDir)
	toAfter := b.attrOf(toDir)
	return vfs.WccData{Before: &fromBefore, After: &fromAfter},
		vfs.WccData{Before: &toBefore, After: &toAfter}, nil
}

// Link handles NFSPROC3_LINK. This backend's nodes have no separate inode
// body shared across names — a hard link here just adds another directory
// entry pointing at the same node and bumps Nlink, which is enough to
// make GETATTR report the shared identity correctly.
func (b *Backend) Link(ctx context.Context, h vfs.Handle, dirHandle vfs.Handle, name string) (vfs.WccData, vfs.WccData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}
	if n.ftype == vfs.TypeDirectory {
		return vfs.WccData{}, vfs.WccData{}, vfs.New(vfs.Inval)
	}
	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}
	if err := validName(name); err != nil {
		return vfs.WccData{}, vfs.WccData{}, err
	}
	if _, exists := dir.children[name]; exists {
		return vfs.WccData{}, vfs.WccData{}, vfs.New(vfs.Exist)
	}

	fileBefore := vfs.DigestOf(b.attrOf(n))
	dirBefore := vfs.DigestOf(b.attrOf(dir))

	dir.children[name] = n.fileid
	dir.cookieGen++
	n.nlink++

	fileAfter := b.attrOf(n)
	dirAfter := b.attrOf(dir)
	return vfs.WccData{Before: &fileBefore, After: &fileAfter},
		vfs.WccData{Before: &dirBefore, After: &dirAfter}, nil
}
