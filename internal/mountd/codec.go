package mountd

import (
	"bytes"

	"github.com/rasky/go-xdr/xdr2"
)

// wireMountEntry and wireExport are the actual recursive wire shapes
// (RFC 1813 §5.1.4/§5.1.6): a chain of pointers, where a nil Next/Groups
// ends the list. rasky/go-xdr/xdr2 encodes an optional via a nil-able
// pointer field directly, so these structs need no custom codec beyond
// what reflection already does; internal/mountd builds and walks plain
// []MountEntry/[]Export slices everywhere else and converts to/from this
// shape only at the wire boundary.
type wireMountEntry struct {
	Hostname  string
	Directory string
	Next      *wireMountEntry
}

type wireGroupNode struct {
	Name string
	Next *wireGroupNode
}

type wireExportNode struct {
	Directory string
	Groups    *wireGroupNode
	Next      *wireExportNode
}

func chainMountEntries(entries []MountEntry) *wireMountEntry {
	var head, tail *wireMountEntry
	for _, e := range entries {
		node := &wireMountEntry{Hostname: e.Hostname, Directory: e.Directory}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
	}
	return head
}

func chainGroups(names []string) *wireGroupNode {
	var head, tail *wireGroupNode
	for _, n := range names {
		node := &wireGroupNode{Name: n}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
	}
	return head
}

func chainExports(exports []Export) *wireExportNode {
	var head, tail *wireExportNode
	for _, ex := range exports {
		node := &wireExportNode{Directory: ex.Directory, Groups: chainGroups(ex.Groups)}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
	}
	return head
}

// marshalXDR2 encodes v (a possibly-nil pointer to a recursive wire
// chain) via xdr2, which is the one library in this stack that decodes
// arbitrarily deep "value follows" pointer chains without a hand-rolled
// loop per list type.
func marshalXDR2(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr2.Marshal(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
