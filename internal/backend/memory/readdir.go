package memory

import (
	"context"
	"encoding/binary"

	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// verifierFor derives a directory's cookie verifier from its current
// cookieGen: any add/remove/rename touching this directory bumps the
// generation, so a verifier mismatch on a later READDIR call means the
// directory changed shape since the cookie was issued.
func verifierFor(gen uint64) vfs.CookieVerifier {
	var v vfs.CookieVerifier
	binary.BigEndian.PutUint64(v[:], gen)
	return v
}

// entriesFrom returns the sorted children of dir starting strictly after
// cookie (0 means from the beginning, using each child's own fileid as
// its stable cookie), or BadCookie if a non-zero cookie doesn't match any
// known entry's position.
func (b *Backend) entriesFrom(dir *node, cookie vfs.DirectoryCookie, verifier vfs.CookieVerifier) ([]string, error) {
	if cookie != 0 && verifier != verifierFor(dir.cookieGen) {
		return nil, vfs.New(vfs.BadCookie)
	}
	names := sortedNames(dir.children)
	if cookie == 0 {
		return names, nil
	}
	for i, name := range names {
		if uint64(cookie) == dir.children[name] {
			return names[i+1:], nil
		}
	}
	return nil, vfs.New(vfs.BadCookie)
}

// ReadDir handles NFSPROC3_READDIR. Entries are returned until maxBytes
// worth of (fileid+name+cookie) have been emitted or the directory is
// exhausted; an entry's cost is its XDR-padded name length plus a fixed
// per-entry overhead for its other fields. The first entry is always
// returned, even when it alone exceeds maxBytes.
func (b *Backend) ReadDir(ctx context.Context, dirHandle vfs.Handle, cookie vfs.DirectoryCookie, verifier vfs.CookieVerifier, maxBytes uint32) ([]vfs.DirEntry, vfs.CookieVerifier, bool, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return nil, vfs.CookieVerifier{}, false, vfs.FileAttr{}, err
	}
	names, err := b.entriesFrom(dir, cookie, verifier)
	if err != nil {
		return nil, vfs.CookieVerifier{}, false, b.attrOf(dir), err
	}

	const perEntryOverhead = 24
	var entries []vfs.DirEntry
	used := uint32(0)
	eof := true
	for _, name := range names {
		cost := perEntryOverhead + (uint32(len(name))+3)&^3
		if used+cost > maxBytes && len(entries) > 0 {
			eof = false
			break
		}
		used += cost
		id := dir.children[name]
		entries = append(entries, vfs.DirEntry{Fileid: id, Name: name, Cookie: vfs.DirectoryCookie(id)})
	}
	return entries, verifierFor(dir.cookieGen), eof, b.attrOf(dir), nil
}

// ReadDirPlus handles NFSPROC3_READDIRPLUS: the same iteration as
// ReadDir, but each entry also carries the child's handle and attributes
// since this backend can resolve both at no extra cost.
func (b *Backend) ReadDirPlus(ctx context.Context, dirHandle vfs.Handle, cookie vfs.DirectoryCookie, verifier vfs.CookieVerifier, maxBytes, maxHandles uint32) ([]vfs.DirEntryPlus, vfs.CookieVerifier, bool, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dir, err := b.resolveDir(dirHandle)
	if err != nil {
		return nil, vfs.CookieVerifier{}, false, vfs.FileAttr{}, err
	}
	names, err := b.entriesFrom(dir, cookie, verifier)
	if err != nil {
		return nil, vfs.CookieVerifier{}, false, b.attrOf(dir), err
	}

	const perEntryOverhead = 96
	var entries []vfs.DirEntryPlus
	used := uint32(0)
	eof := true
	for _, name := range names {
		if uint32(len(entries)) >= maxHandles {
			eof = false
			break
		}
		cost := perEntryOverhead + uint32(len(name))
		if used+cost > maxBytes && len(entries) > 0 {
			eof = false
			break
		}
		used += cost
		id := dir.children[name]
		child := b.nodes[id]
		attr := b.attrOf(child)
		entries = append(entries, vfs.DirEntryPlus{
			DirEntry: vfs.DirEntry{Fileid: id, Name: name, Cookie: vfs.DirectoryCookie(id)},
			Handle:   idToHandle(id),
			Attr:     &attr,
		})
	}
	return entries, verifierFor(dir.cookieGen), eof, b.attrOf(dir), nil
}
