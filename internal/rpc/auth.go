package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxUnixGIDs bounds the supplementary group list in an AUTH_UNIX
// credential, matching the conventional NFS client limit (and the
// teacher corpus's own limit for this field).
const MaxUnixGIDs = 16

// MaxUnixMachineNameLen bounds AUTH_UNIX's machine name field.
const MaxUnixMachineNameLen = 255

// UnixAuth is a decoded AUTH_UNIX (AUTH_SYS) credential body (RFC 5531
// §9, "AUTH_UNIX Authentication"). Decoding it is supported so callers
// that want a UID/GID for logging or a future authorization policy can
// have one; this core's in-memory backend does not itself enforce it.
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// ParseUnixAuth decodes an AUTH_UNIX credential body.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("rpc: empty auth_unix body")
	}

	r := bytes.NewReader(body)

	var stamp uint32
	if err := binary.Read(r, binary.BigEndian, &stamp); err != nil {
		return nil, fmt.Errorf("rpc: read stamp: %w", err)
	}

	var nameLen uint32
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("rpc: read machine name length: %w", err)
	}
	if nameLen > MaxUnixMachineNameLen {
		return nil, fmt.Errorf("rpc: machine name too long (%d)", nameLen)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, fmt.Errorf("rpc: read machine name: %w", err)
	}
	if pad := (4 - nameLen%4) % 4; pad > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
			return nil, fmt.Errorf("rpc: read machine name padding: %w", err)
		}
	}

	var uid, gid uint32
	if err := binary.Read(r, binary.BigEndian, &uid); err != nil {
		return nil, fmt.Errorf("rpc: read uid: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &gid); err != nil {
		return nil, fmt.Errorf("rpc: read gid: %w", err)
	}

	var gidCount uint32
	if err := binary.Read(r, binary.BigEndian, &gidCount); err != nil {
		return nil, fmt.Errorf("rpc: read gid count: %w", err)
	}
	if gidCount > MaxUnixGIDs {
		return nil, fmt.Errorf("rpc: too many gids (%d)", gidCount)
	}
	gids := make([]uint32, gidCount)
	for i := range gids {
		if err := binary.Read(r, binary.BigEndian, &gids[i]); err != nil {
			return nil, fmt.Errorf("rpc: read gid[%d]: %w", i, err)
		}
	}

	return &UnixAuth{
		Stamp:       stamp,
		MachineName: string(nameBytes),
		UID:         uid,
		GID:         gid,
		GIDs:        gids,
	}, nil
}

// String renders the credential for log lines.
func (a *UnixAuth) String() string {
	return fmt.Sprintf("UnixAuth{machine=%s, uid=%d, gid=%d, gids=%v}", a.MachineName, a.UID, a.GID, a.GIDs)
}
