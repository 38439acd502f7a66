package nfs3

import (
	"context"

	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

func encodeCreatedResult(e *xdr.Encoder, status Status, node vfs.CreatedNode) {
	e.Uint32(uint32(status))
	if status == StatusOK {
		e.Option(true, func() { encodeHandle(e, node.Handle) })
		encodePostOpAttr(e, &node.Attr)
	} else {
		e.Option(false, func() {})
		e.Option(false, func() {})
	}
	encodeWccData(e, node.Wcc)
}

// Create handles NFSPROC3_CREATE (RFC 1813 §3.3.8). CreateMode Exclusive
// makes retransmitted creates idempotent via the client-chosen verifier;
// Guarded fails if the name already exists; Unchecked clobbers like a
// plain open(O_CREAT).
func Create(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}
	modeWire, err := d.Discriminant(0, 1, 2)
	if err != nil {
		return nil, err
	}

	req := vfs.CreateRequest{Mode: vfs.CreateMode(modeWire)}
	switch req.Mode {
	case vfs.Exclusive:
		v, err := d.FixedArray(8)
		if err != nil {
			return nil, err
		}
		copy(req.Verifier[:], v)
	default:
		attr, err := decodeSetAttr(d)
		if err != nil {
			return nil, err
		}
		req.Attr = attr
	}

	node, opErr := fs.Create(ctx, dir, name, req)

	e := xdr.NewEncoder()
	encodeCreatedResult(e, statusOf(opErr), node)
	return e.Bytes(), nil
}

// MakeDir handles NFSPROC3_MKDIR (RFC 1813 §3.3.9).
func MakeDir(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}
	attr, err := decodeSetAttr(d)
	if err != nil {
		return nil, err
	}

	node, opErr := fs.MakeDir(ctx, dir, name, attr)

	e := xdr.NewEncoder()
	encodeCreatedResult(e, statusOf(opErr), node)
	return e.Bytes(), nil
}

// MakeSymlink handles NFSPROC3_SYMLINK (RFC 1813 §3.3.10).
func MakeSymlink(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}
	attr, err := decodeSetAttr(d)
	if err != nil {
		return nil, err
	}
	target, err := d.StringBounded(MaxPathLen)
	if err != nil {
		return nil, err
	}

	node, opErr := fs.MakeSymlink(ctx, dir, name, target, attr)

	e := xdr.NewEncoder()
	encodeCreatedResult(e, statusOf(opErr), node)
	return e.Bytes(), nil
}

// MakeNode handles NFSPROC3_MKNOD (RFC 1813 §3.3.11): creates a device,
// socket, or FIFO special file. Only device types carry a DeviceNumber;
// sockets and FIFOs carry only attributes.
func MakeNode(ctx context.Context, fs vfs.Vfs, d *xdr.Decoder) ([]byte, error) {
	dir, err := decodeHandle(d)
	if err != nil {
		return nil, err
	}
	name, err := decodeName(d)
	if err != nil {
		return nil, err
	}
	typeWire, err := d.Discriminant(
		uint32(vfs.TypeBlockDevice), uint32(vfs.TypeCharDevice),
		uint32(vfs.TypeSocket), uint32(vfs.TypeFIFO),
	)
	if err != nil {
		return nil, err
	}

	node := vfs.SpecialNode{Type: vfs.FileType(typeWire)}
	var attr vfs.SetAttr
	switch node.Type {
	case vfs.TypeBlockDevice, vfs.TypeCharDevice:
		attr, err = decodeSetAttr(d)
		if err != nil {
			return nil, err
		}
		major, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		minor, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		node.Rdev = vfs.DeviceNumber{Major: major, Minor: minor}
	default:
		attr, err = decodeSetAttr(d)
		if err != nil {
			return nil, err
		}
	}

	created, opErr := fs.MakeNode(ctx, dir, name, node, attr)

	e := xdr.NewEncoder()
	encodeCreatedResult(e, statusOf(opErr), created)
	return e.Bytes(), nil
}
