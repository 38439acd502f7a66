package memory

import (
	"sync"

	"github.com/go-nfsd/nfsd3/internal/mountd"
	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// exportPath is the single path this backend exports, matching the
// single-root-directory shape of the in-memory filesystem itself: there
// is only ever one tree to mount.
const exportPath = "/"

// Registry implements mountd.Registry over a Backend. It tracks only
// which clients currently have the export mounted; resolving the export
// itself is always the backend's root, so Mount fails for any dirpath
// other than exportPath and never for exportPath itself.
type Registry struct {
	mu      sync.Mutex
	backend *Backend
	groups  []string
	mounts  map[string]map[string]struct{} // clientHost -> set of mounted paths
}

// NewRegistry builds a Registry exporting backend's root. groups is
// reported as the export's group list in EXPORT replies; Mount does not
// check the client against it, so every client may mount the export.
func NewRegistry(backend *Backend, groups []string) *Registry {
	return &Registry{
		backend: backend,
		groups:  groups,
		mounts:  make(map[string]map[string]struct{}),
	}
}

var _ mountd.Registry = (*Registry)(nil)

func (r *Registry) Mount(clientHost, path string) (vfs.Handle, error) {
	if path != exportPath {
		return vfs.Handle{}, vfs.New(vfs.Inval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mounts[clientHost] == nil {
		r.mounts[clientHost] = make(map[string]struct{})
	}
	r.mounts[clientHost][path] = struct{}{}
	return r.backend.RootHandle(), nil
}

func (r *Registry) Unmount(clientHost, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.mounts[clientHost], path)
	if len(r.mounts[clientHost]) == 0 {
		delete(r.mounts, clientHost)
	}
}

func (r *Registry) UnmountAll(clientHost string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.mounts, clientHost)
}

func (r *Registry) Dump() []mountd.MountEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []mountd.MountEntry
	for host, paths := range r.mounts {
		for path := range paths {
			entries = append(entries, mountd.MountEntry{Hostname: host, Directory: path})
		}
	}
	return entries
}

func (r *Registry) Exports() []mountd.Export {
	return []mountd.Export{{Directory: exportPath, Groups: r.groups}}
}
