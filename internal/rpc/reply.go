package rpc

import (
	"fmt"

	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// acceptedHeader writes the common prefix of every MSG_ACCEPTED reply:
// xid, msg_type=REPLY, reply_stat=MSG_ACCEPTED, and an AUTH_NONE
// verifier (flavor 0, zero-length body). Only flavor 0 is required to
// succeed per spec, so the server's own verifier is always AUTH_NONE.
func acceptedHeader(xid uint32) *xdr.Encoder {
	e := xdr.NewEncoder()
	e.Uint32(xid)
	e.Uint32(RPCReply)
	e.Uint32(RPCMsgAccepted)
	e.Uint32(AuthNull)
	e.Uint32(0)
	return e
}

// finalize prepends the record-marking fragment header to an encoded
// reply body, producing the complete wire message.
func finalize(e *xdr.Encoder) []byte {
	payload := e.Bytes()
	out := make([]byte, 0, 4+len(payload))
	out = append(out, EncodeFragmentHeader(uint32(len(payload)))...)
	out = append(out, payload...)
	return out
}

// MakeSuccessReply builds an accepted/success reply whose body is a
// pre-encoded procedure result (nfsstat3 followed by the ok/fail union
// arm), as produced by internal/nfs3 and internal/mountd.
func MakeSuccessReply(xid uint32, body []byte) []byte {
	e := acceptedHeader(xid)
	e.Uint32(RPCSuccess)
	e.Raw(body)
	return finalize(e)
}

// MakeSuccessReplyHeader builds the record-marking header plus everything
// of a success reply up to (and not including) a bulk payload that the
// caller streams separately — e.g. a READ's opaque<> data bytes living in
// a bufpool.Slice rather than a heap buffer. Record-marking framing needs
// the total fragment length up front, so the caller passes payloadLen
// (the streamed byte count); MakeSuccessReplyHeader returns the prefix to
// write first and the XDR padding byte count to write last, once the
// payload itself has been streamed.
func MakeSuccessReplyHeader(xid uint32, header []byte, payloadLen int) (prefix []byte, pad int) {
	e := acceptedHeader(xid)
	e.Uint32(RPCSuccess)
	e.Raw(header)
	body := e.Bytes()

	pad = (4 - payloadLen%4) % 4
	total := len(body) + payloadLen + pad
	prefix = make([]byte, 0, 4+len(body))
	prefix = append(prefix, EncodeFragmentHeader(uint32(total))...)
	prefix = append(prefix, body...)
	return prefix, pad
}

// MakeProgUnavailReply builds an accepted/PROG_UNAVAIL reply for an
// unrecognized program number.
func MakeProgUnavailReply(xid uint32) []byte {
	e := acceptedHeader(xid)
	e.Uint32(RPCProgUnavail)
	return finalize(e)
}

// MakeProgMismatchReply builds an accepted/PROG_MISMATCH reply carrying
// the [low, high] version range this core supports for the program.
func MakeProgMismatchReply(xid, low, high uint32) ([]byte, error) {
	if low > high {
		return nil, fmt.Errorf("rpc: invalid version range: low (%d) > high (%d)", low, high)
	}
	e := acceptedHeader(xid)
	e.Uint32(RPCProgMismatch)
	e.Uint32(low)
	e.Uint32(high)
	return finalize(e), nil
}

// MakeProcUnavailReply builds an accepted/PROC_UNAVAIL reply for an
// unrecognized procedure number within a known program/version.
func MakeProcUnavailReply(xid uint32) []byte {
	e := acceptedHeader(xid)
	e.Uint32(RPCProcUnavail)
	return finalize(e)
}

// MakeGarbageArgsReply builds an accepted/GARBAGE_ARGS reply for
// arguments that failed to decode.
func MakeGarbageArgsReply(xid uint32) []byte {
	e := acceptedHeader(xid)
	e.Uint32(RPCGarbageArgs)
	return finalize(e)
}

// MakeSystemErrReply builds an accepted/SYSTEM_ERR reply for an internal
// failure unrelated to the client's request.
func MakeSystemErrReply(xid uint32) []byte {
	e := acceptedHeader(xid)
	e.Uint32(RPCSystemErr)
	return finalize(e)
}

// MakeRPCMismatchReply builds a denied/RPC_MISMATCH reply for an
// unsupported rpc_version, carrying the [low, high] this core speaks.
// MSG_DENIED replies carry no verifier.
func MakeRPCMismatchReply(xid, low, high uint32) []byte {
	e := xdr.NewEncoder()
	e.Uint32(xid)
	e.Uint32(RPCReply)
	e.Uint32(RPCMsgDenied)
	e.Uint32(RPCMismatch)
	e.Uint32(low)
	e.Uint32(high)
	return finalize(e)
}

// MakeAuthErrorReply builds a denied/AUTH_ERROR reply carrying the given
// auth_stat sub-code.
func MakeAuthErrorReply(xid, authStat uint32) []byte {
	e := xdr.NewEncoder()
	e.Uint32(xid)
	e.Uint32(RPCReply)
	e.Uint32(RPCMsgDenied)
	e.Uint32(RPCAuthErr)
	e.Uint32(authStat)
	return finalize(e)
}
