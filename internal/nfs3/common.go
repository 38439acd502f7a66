package nfs3

import (
	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// MaxHandleLen is the wire nfs_fh3 maximum (RFC 1813 §2.6). This core's
// handles are fixed at vfs.HandleLen, well under the wire ceiling.
const MaxHandleLen = 64

// MaxNameLen bounds a filename3/symlinkdata3 filename component.
const MaxNameLen = 255

// MaxPathLen bounds a symlink target (nfspath3).
const MaxPathLen = 1024

func decodeHandle(d *xdr.Decoder) (vfs.Handle, error) {
	var h vfs.Handle
	raw, err := d.OpaqueBounded(MaxHandleLen)
	if err != nil {
		return h, err
	}
	if len(raw) != vfs.HandleLen {
		return h, vfs.New(vfs.BadHandle)
	}
	copy(h[:], raw)
	return h, nil
}

func encodeHandle(e *xdr.Encoder, h vfs.Handle) {
	e.OpaqueBounded(h[:])
}

func decodeFileTime(d *xdr.Decoder) (vfs.FileTime, error) {
	sec, err := d.Uint32()
	if err != nil {
		return vfs.FileTime{}, err
	}
	nsec, err := d.Uint32()
	if err != nil {
		return vfs.FileTime{}, err
	}
	return vfs.FileTime{Seconds: sec, Nseconds: nsec}, nil
}

func encodeFileTime(e *xdr.Encoder, t vfs.FileTime) {
	e.Uint32(t.Seconds)
	e.Uint32(t.Nseconds)
}

func encodeFileAttr(e *xdr.Encoder, a vfs.FileAttr) {
	e.Uint32(uint32(a.Type))
	e.Uint32(a.Mode)
	e.Uint32(a.Nlink)
	e.Uint32(a.UID)
	e.Uint32(a.GID)
	e.Uint64(a.Size)
	e.Uint64(a.Used)
	e.Uint32(a.Rdev.Major)
	e.Uint32(a.Rdev.Minor)
	e.Uint64(a.Fsid)
	e.Uint64(a.Fileid)
	encodeFileTime(e, a.Atime)
	encodeFileTime(e, a.Mtime)
	encodeFileTime(e, a.Ctime)
}

// encodePostOpAttr writes an optional post_op_attr: present unless the
// operation could not produce one (a bare failure with no attribute
// snapshot available).
func encodePostOpAttr(e *xdr.Encoder, a *vfs.FileAttr) {
	e.Option(a != nil, func() { encodeFileAttr(e, *a) })
}

func encodeWeakAttr(e *xdr.Encoder, d vfs.AttrDigest) {
	e.Uint64(d.Size)
	encodeFileTime(e, d.Mtime)
	encodeFileTime(e, d.Ctime)
}

// encodeWccData writes a wcc_data: two independently-optional halves.
func encodeWccData(e *xdr.Encoder, w vfs.WccData) {
	e.Option(w.Before != nil, func() { encodeWeakAttr(e, *w.Before) })
	encodePostOpAttr(e, w.After)
}

// encodeFailure writes just the status, for procedures whose failure arm
// carries no body.
func encodeFailure(status Status) []byte {
	e := xdr.NewEncoder()
	e.Uint32(uint32(status))
	return e.Bytes()
}

func decodeSetTime(d *xdr.Decoder) (vfs.SetTime, error) {
	mode, err := d.Discriminant(0, 1, 2)
	if err != nil {
		return vfs.SetTime{}, err
	}
	switch mode {
	case 0:
		return vfs.SetTime{Mode: vfs.DontChange}, nil
	case 1:
		return vfs.SetTime{Mode: vfs.ServerCurrent}, nil
	default:
		t, err := decodeFileTime(d)
		if err != nil {
			return vfs.SetTime{}, err
		}
		return vfs.SetTime{Mode: vfs.ClientProvided, Value: t}, nil
	}
}

func decodeSetAttr(d *xdr.Decoder) (vfs.SetAttr, error) {
	var sa vfs.SetAttr

	if _, err := d.Option(func() error {
		v, err := d.Uint32()
		if err != nil {
			return err
		}
		sa.Mode = &v
		return nil
	}); err != nil {
		return sa, err
	}

	if _, err := d.Option(func() error {
		v, err := d.Uint32()
		if err != nil {
			return err
		}
		sa.UID = &v
		return nil
	}); err != nil {
		return sa, err
	}

	if _, err := d.Option(func() error {
		v, err := d.Uint32()
		if err != nil {
			return err
		}
		sa.GID = &v
		return nil
	}); err != nil {
		return sa, err
	}

	if _, err := d.Option(func() error {
		v, err := d.Uint64()
		if err != nil {
			return err
		}
		sa.Size = &v
		return nil
	}); err != nil {
		return sa, err
	}

	atime, err := decodeSetTime(d)
	if err != nil {
		return sa, err
	}
	sa.Atime = atime

	mtime, err := decodeSetTime(d)
	if err != nil {
		return sa, err
	}
	sa.Mtime = mtime

	return sa, nil
}

func decodeSattrGuard(d *xdr.Decoder) (vfs.SetAttrGuard, error) {
	var g vfs.SetAttrGuard
	present, err := d.Option(func() error {
		t, err := decodeFileTime(d)
		if err != nil {
			return err
		}
		g.Ctime = t
		return nil
	})
	if err != nil {
		return g, err
	}
	g.Check = present
	return g, nil
}

func decodeName(d *xdr.Decoder) (string, error) {
	return d.StringBounded(MaxNameLen)
}

func encodeDirEntry(e *xdr.Encoder, ent vfs.DirEntry) {
	e.Uint64(ent.Fileid)
	e.StringBounded(ent.Name)
	e.Uint64(uint64(ent.Cookie))
}
