package rpc

import (
	"fmt"

	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// CallHeader is a decoded RPC call header (RFC 5531 §9), everything up to
// but not including the procedure-specific arguments.
type CallHeader struct {
	XID        uint32
	Program    uint32
	Version    uint32
	Procedure  uint32
	CredFlavor uint32
	CredBody   []byte
	VerfFlavor uint32
	VerfBody   []byte
}

// ErrNotACall is returned by ReadCallHeader when msg_type is not CALL.
type ErrNotACall struct{ MsgType uint32 }

func (e *ErrNotACall) Error() string {
	return fmt.Sprintf("rpc: expected CALL message, got msg_type=%d", e.MsgType)
}

// ErrRPCVersionMismatch is returned by ReadCallHeader when rpc_version is
// not the one version this core speaks. The session engine catches this
// specifically to emit MSG_DENIED/RPC_MISMATCH rather than killing the
// connection.
type ErrRPCVersionMismatch struct{ Got uint32 }

func (e *ErrRPCVersionMismatch) Error() string {
	return fmt.Sprintf("rpc: unsupported rpc version %d", e.Got)
}

// ReadCallHeader decodes a call header from d, leaving the cursor
// positioned at the start of the procedure-specific arguments. A short
// read surfaces as xdr.ErrNeedMore exactly like any other decode. The
// session engine does not refill and retry on it: it decodes from bytes
// of the fragment already read, and ends the connection on any header
// error other than ErrRPCVersionMismatch.
func ReadCallHeader(d *xdr.Decoder) (*CallHeader, error) {
	xid, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	msgType, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if msgType != RPCCall {
		return nil, &ErrNotACall{MsgType: msgType}
	}
	rpcVers, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if rpcVers != RPCVersion {
		return nil, &ErrRPCVersionMismatch{Got: rpcVers}
	}
	program, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	version, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	procedure, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	credFlavor, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	credBody, err := d.OpaqueBounded(MaxAuthBodyLen)
	if err != nil {
		return nil, err
	}
	verfFlavor, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	verfBody, err := d.OpaqueBounded(MaxAuthBodyLen)
	if err != nil {
		return nil, err
	}

	return &CallHeader{
		XID:        xid,
		Program:    program,
		Version:    version,
		Procedure:  procedure,
		CredFlavor: credFlavor,
		CredBody:   credBody,
		VerfFlavor: verfFlavor,
		VerfBody:   verfBody,
	}, nil
}
