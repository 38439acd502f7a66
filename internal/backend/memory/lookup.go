package memory

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// Lookup handles NFSPROC3_LOOKUP.
func (b *Backend) Lookup(ctx context.Context, dir vfs.Handle, name string) (vfs.LookupResult, vfs.WccData, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	d, err := b.lookupNode(dir)
	if err != nil {
		return vfs.LookupResult{}, vfs.WccData{}, err
	}
	if d.ftype != vfs.TypeDirectory {
		return vfs.LookupResult{}, vfs.WccData{}, vfs.New(vfs.NotDir)
	}

	dirAttr := b.attrOf(d)
	wcc := vfs.WccData{After: &dirAttr}

	if name == "." {
		return vfs.LookupResult{Handle: dir, Attr: dirAttr}, wcc, nil
	}
	if name == ".." {
		parent := d.parent
		if d.fileid == rootFileid {
			parent = rootFileid
		}
		pn := b.nodes[parent]
		return vfs.LookupResult{Handle: idToHandle(pn.fileid), Attr: b.attrOf(pn)}, wcc, nil
	}

	childID, ok := d.children[name]
	if !ok {
		return vfs.LookupResult{}, wcc, vfs.New(vfs.NoEnt)
	}
	child := b.nodes[childID]
	return vfs.LookupResult{Handle: idToHandle(child.fileid), Attr: b.attrOf(child)}, wcc, nil
}

// Access handles NFSPROC3_ACCESS. This backend performs no permission
// enforcement, so it grants every requested bit — a subset (here, all)
// of the mask, never more, satisfying the contract's monotonicity rule.
func (b *Backend) Access(ctx context.Context, h vfs.Handle, mask vfs.AccessMask) (vfs.AccessMask, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return 0, vfs.FileAttr{}, err
	}
	return mask, b.attrOf(n), nil
}

// ReadLink handles NFSPROC3_READLINK.
func (b *Backend) ReadLink(ctx context.Context, h vfs.Handle) (string, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return "", vfs.FileAttr{}, err
	}
	if n.ftype != vfs.TypeSymlink {
		return "", b.attrOf(n), vfs.New(vfs.Inval)
	}
	return n.linkTarget, b.attrOf(n), nil
}
