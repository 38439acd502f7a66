package memory

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// resolveDir looks up a handle and requires it to be a directory.
func (b *Backend) resolveDir(h vfs.Handle) (*node, error) {
	n, err := b.lookupNode(h)
	if err != nil {
		return nil, err
	}
	if n.ftype != vfs.TypeDirectory {
		return nil, vfs.New(vfs.NotDir)
	}
	return n, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." {
		return vfs.New(vfs.Inval)
	}
	return nil
}

func (b *Backend) link(dir *node, name string, child *node) {
	dir.children[name] = child.fileid
	dir.cookieGen++
	child.parent = dir.fileid
	child.name = name
}

// Create handles NFSPROC3_CREATE. Exclusive mode stashes the client's
// verifier on the node so a retried CREATE with the same verifier can be
// recognized as the same logical request rather than a name collision.
func (b *Backend) Create(ctx context.Context, dirHandle vfs.Handle, name string, req vfs.CreateRequest) (vfs.CreatedNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.CreatedNode{}, err
	}
	if err := validName(name); err != nil {
		return vfs.CreatedNode{}, err
	}
	before := vfs.DigestOf(b.attrOf(dir))

	existingID, exists := dir.children[name]

	switch req.Mode {
	case vfs.Exclusive:
		if exists {
			existing := b.nodes[existingID]
			if existing.createVerifier != nil && *existing.createVerifier == req.Verifier {
				after := b.attrOf(dir)
				return vfs.CreatedNode{
					Handle: idToHandle(existing.fileid),
					Attr:   b.attrOf(existing),
					Wcc:    vfs.WccData{Before: &before, After: &after},
				}, nil
			}
			return vfs.CreatedNode{}, vfs.New(vfs.Exist)
		}
		n := b.newNode(vfs.TypeRegular, dir.fileid, name)
		verifier := req.Verifier
		n.createVerifier = &verifier
		b.link(dir, name, n)
		after := b.attrOf(dir)
		return vfs.CreatedNode{
			Handle: idToHandle(n.fileid),
			Attr:   b.attrOf(n),
			Wcc:    vfs.WccData{Before: &before, After: &after},
		}, nil

	case vfs.Guarded:
		if exists {
			return vfs.CreatedNode{}, vfs.New(vfs.Exist)
		}
	case vfs.Unchecked:
		// fall through; clobber an existing regular file below
	}

	var n *node
	if exists {
		n = b.nodes[existingID]
		if n.ftype != vfs.TypeRegular {
			return vfs.CreatedNode{}, vfs.New(vfs.Exist)
		}
	} else {
		n = b.newNode(vfs.TypeRegular, dir.fileid, name)
		b.link(dir, name, n)
	}
	if err := b.applySetAttr(n, req.Attr); err != nil {
		return vfs.CreatedNode{}, err
	}

	after := b.attrOf(dir)
	return vfs.CreatedNode{
		Handle: idToHandle(n.fileid),
		Attr:   b.attrOf(n),
		Wcc:    vfs.WccData{Before: &before, After: &after},
	}, nil
}

// MakeDir handles NFSPROC3_MKDIR.
func (b *Backend) MakeDir(ctx context.Context, dirHandle vfs.Handle, name string, attr vfs.SetAttr) (vfs.CreatedNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.CreatedNode{}, err
	}
	if err := validName(name); err != nil {
		return vfs.CreatedNode{}, err
	}
	if _, exists := dir.children[name]; exists {
		return vfs.CreatedNode{}, vfs.New(vfs.Exist)
	}

	before := vfs.DigestOf(b.attrOf(dir))
	n := b.newNode(vfs.TypeDirectory, dir.fileid, name)
	b.link(dir, name, n)
	if err := b.applySetAttr(n, attr); err != nil {
		return vfs.CreatedNode{}, err
	}
	after := b.attrOf(dir)
	return vfs.CreatedNode{
		Handle: idToHandle(n.fileid),
		Attr:   b.attrOf(n),
		Wcc:    vfs.WccData{Before: &before, After: &after},
	}, nil
}

// MakeSymlink handles NFSPROC3_SYMLINK.
func (b *Backend) MakeSymlink(ctx context.Context, dirHandle vfs.Handle, name string, target string, attr vfs.SetAttr) (vfs.CreatedNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.CreatedNode{}, err
	}
	if err := validName(name); err != nil {
		return vfs.CreatedNode{}, err
	}
	if _, exists := dir.children[name]; exists {
		return vfs.CreatedNode{}, vfs.New(vfs.Exist)
	}

	before := vfs.DigestOf(b.attrOf(dir))
	n := b.newNode(vfs.TypeSymlink, dir.fileid, name)
	n.linkTarget = target
	n.size = uint64(len(target))
	b.link(dir, name, n)
	if err := b.applySetAttr(n, attr); err != nil {
		return vfs.CreatedNode{}, err
	}
	after := b.attrOf(dir)
	return vfs.CreatedNode{
		Handle: idToHandle(n.fileid),
		Attr:   b.attrOf(n),
		Wcc:    vfs.WccData{Before: &before, After: &after},
	}, nil
}

// MakeNode handles NFSPROC3_MKNOD.
func (b *Backend) MakeNode(ctx context.Context, dirHandle vfs.Handle, name string, spec vfs.SpecialNode, attr vfs.SetAttr) (vfs.CreatedNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return vfs.CreatedNode{}, err
	}
	if err := validName(name); err != nil {
		return vfs.CreatedNode{}, err
	}
	if spec.Type != vfs.TypeBlockDevice && spec.Type != vfs.TypeCharDevice &&
		spec.Type != vfs.TypeSocket && spec.Type != vfs.TypeFIFO {
		return vfs.CreatedNode{}, vfs.New(vfs.Inval)
	}
	if _, exists := dir.children[name]; exists {
		return vfs.CreatedNode{}, vfs.New(vfs.Exist)
	}

	before := vfs.DigestOf(b.attrOf(dir))
	n := b.newNode(spec.Type, dir.fileid, name)
	if spec.Type == vfs.TypeBlockDevice || spec.Type == vfs.TypeCharDevice {
		n.rdev = spec.Rdev
	}
	b.link(dir, name, n)
	if err := b.applySetAttr(n, attr); err != nil {
		return vfs.CreatedNode{}, err
	}
	after := b.attrOf(dir)
	return vfs.CreatedNode{
		Handle: idToHandle(n.fileid),
		Attr:   b.attrOf(n),
		Wcc:    vfs.WccData{Before: &before, After: &after},
	}, nil
}
