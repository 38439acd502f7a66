package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// ReadDir handles NFSPROC3_READDIR (RFC 1813 §3.3.16). Entries are built
// into a plain slice by the backend and only reconstructed into the
// wire's "value follows" chained-entry shape here, at encode time.
func ReadDir(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	cookie, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	verifierRaw, err := d.FixedArray(8)
	if err != nil {
		return nil, err
	}
	maxCount, err := d.Uint32()
	if err != nil {
		return nil, err
	}

	var verifier vfs.CookieVerifier
	copy(verifier[:], verifierRaw)

	entries, newVerifier, eof, attr, opErr := fs.ReadDir(ctx, dir, vfs.DirectoryCookie(cookie), verifier, maxCount)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status != StatusOK {
		return e.Bytes(), nil
	}
	e.FixedArray(newVerifier[:])
	for _, ent := range entries {
		e.Bool(true) // value follows
		encodeDirEntry(e, ent)
	}
	e.Bool(false) // no more entries in this chain
	e.Bool(eof)
	return e.Bytes(), nil
}

// ReadDirPlus handles NFSPROC3_READDIRPLUS (RFC 1813 §3.3.17): like
// READDIR but each entry also carries the child's handle and attributes
// when the backend can supply them without extra cost.
func ReadDirPlus(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	cookie, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	verifierRaw, err := d.FixedArray(8)
	if err != nil {
		return nil, err
	}
	dirCount, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	maxCount, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	_ = dirCount // advisory hint only; this core sizes replies by maxCount

	var verifier vfs.CookieVerifier
	copy(verifier[:], verifierRaw)

	entries, newVerifier, eof, attr, opErr := fs.ReadDirPlus(ctx, dir, vfs.DirectoryCookie(cookie), verifier, maxCount, maxCount)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status != StatusOK {
		return e.Bytes(), nil
	}
	e.FixedArray(newVerifier[:])
	for _, ent := range entries {
		e.Bool(true)
		e.Uint64(ent.Fileid)
		e.StringBounded(ent.Name)
		e.Uint64(uint64(ent.Cookie))
		encodePostOpAttr(e, ent.Attr)
		e.Option(true, func() { encodeHandle(e, ent.Handle) })
	}
	e.Bool(false)
	e.Bool(eof)
	return e.Bytes(), nil
}
