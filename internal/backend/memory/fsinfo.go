package memory

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"

	"github.com/go-nfsd/nfsd3/internal/nfs3"
)

// capacityBytes is the fictional total size reported by FSSTAT. This
// backend is a MemMapFs over process memory, so "total" and "free" are
// nominal figures rather than a real quota.
const capacityBytes uint64 = 64 << 30

// FsStat handles NFSPROC3_FSSTAT.
func (b *Backend) FsStat(ctx context.Context, h vfs.Handle) (vfs.FsStat, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return vfs.FsStat{}, vfs.FileAttr{}, err
	}

	var used uint64
	for _, other := range b.nodes {
		if other.ftype == vfs.TypeRegular {
			used += b.attrOf(other).Size
		}
	}
	free := capacityBytes - used
	if used > capacityBytes {
		free = 0
	}

	stat := vfs.FsStat{
		TotalBytes: capacityBytes,
		FreeBytes:  free,
		AvailBytes: free,
		TotalFiles: 1 << 20,
		FreeFiles:  (1 << 20) - uint64(len(b.nodes)),
		AvailFiles: (1 << 20) - uint64(len(b.nodes)),
		InvarSec:   0,
	}
	return stat, b.attrOf(n), nil
}

// FsInfo handles NFSPROC3_FSINFO.
func (b *Backend) FsInfo(ctx context.Context, h vfs.Handle) (vfs.FsInfo, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return vfs.FsInfo{}, vfs.FileAttr{}, err
	}

	info := vfs.FsInfo{
		RtMax:  nfs3.MaxReadCount,
		RtPref: nfs3.MaxReadCount,
		RtMult: 4096,
		WtMax:  nfs3.MaxWriteCount,
		WtPref: nfs3.MaxWriteCount,
		WtMult: 4096,
		DtPref: 32768,
		MaxFileSize: 1 << 44,
		TimeDelta:   vfs.FileTime{Seconds: 0, Nseconds: 1000},
		Properties:  vfs.FSFLink | vfs.FSFSymlink | vfs.FSFCanSetTime,
	}
	return info, b.attrOf(n), nil
}

// PathConf handles NFSPROC3_PATHCONF.
func (b *Backend) PathConf(ctx context.Context, h vfs.Handle) (vfs.PathConf, vfs.FileAttr, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.lookupNode(h)
	if err != nil {
		return vfs.PathConf{}, vfs.FileAttr{}, err
	}

	conf := vfs.PathConf{
		LinkMax:         32000,
		NameMax:         255,
		NoTrunc:         true,
		ChownRestricted: false,
		CaseInsensitive: false,
		CasePreserving:  true,
	}
	return conf, b.attrOf(n), nil
}
