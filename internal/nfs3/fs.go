package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// FsStat handles NFSPROC3_FSSTAT (RFC 1813 §3.3.18): dynamic filesystem
// usage, the numbers behind `df`.
func FsStat(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}

	stat, attr, opErr := fs.FsStat(ctx, h)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status == StatusOK {
		e.Uint64(stat.TotalBytes)
		e.Uint64(stat.FreeBytes)
		e.Uint64(stat.AvailBytes)
		e.Uint64(stat.TotalFiles)
		e.Uint64(stat.FreeFiles)
		e.Uint64(stat.AvailFiles)
		e.Uint32(stat.InvarSec)
	}
	return e.Bytes(), nil
}

// FsInfo handles NFSPROC3_FSINFO (RFC 1813 §3.3.19): static per-fs
// capabilities a client fetches once, after its first successful handle
// resolution, to size its I/O.
func FsInfo(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}

	info, attr, opErr := fs.FsInfo(ctx, h)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status == StatusOK {
		e.Uint32(info.RtMax)
		e.Uint32(info.RtPref)
		e.Uint32(info.RtMult)
		e.Uint32(info.WtMax)
		e.Uint32(info.WtPref)
		e.Uint32(info.WtMult)
		e.Uint32(info.DtPref)
		e.Uint64(info.MaxFileSize)
		encodeFileTime(e, info.TimeDelta)
		e.Uint32(info.Properties)
	}
	return e.Bytes(), nil
}

// PathConf handles NFSPROC3_PATHCONF (RFC 1813 §3.3.20): POSIX pathconf
// limits for the filesystem the object lives on.
func PathConf(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	h, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}

	pc, attr, opErr := fs.PathConf(ctx, h)

	e := xdr.NewEncoder()
	status := statusOf(opErr)
	e.Uint32(uint32(status))
	encodePostOpAttr(e, &attr)
	if status == StatusOK {
		e.Uint32(pc.LinkMax)
		e.Uint32(pc.NameMax)
		e.Bool(pc.NoTrunc)
		e.Bool(pc.ChownRestricted)
		e.Bool(pc.CaseInsensitive)
		e.Bool(pc.CasePreserving)
	}
	return e.Bytes(), nil
}
