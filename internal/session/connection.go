package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-nfsd/nfsd3/internal/bufpool"
	"github.com/go-nfsd/nfsd3/internal/logger"
	"github.com/go-nfsd/nfsd3/internal/mountd"
	"github.com/go-nfsd/nfsd3/internal/nfs3"
	"github.com/go-nfsd/nfsd3/internal/rpc"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// supportedVersionLow and supportedVersionHigh are the [low, high] range
// this core advertises on a PROG_MISMATCH reply: exactly version 3, for
// both NFS and MOUNT. rpcVersionLow and rpcVersionHigh are the range it
// advertises on an RPC_MISMATCH reply.
const (
	supportedVersionLow  = 3
	supportedVersionHigh = 3
	rpcVersionLow        = 2
	rpcVersionHigh       = 2
)

// maxInlineRead bounds the heap buffer readRequest uses to decode a
// fragment's call header and fixed-width procedure arguments. It is sized
// generously above the largest realistic non-WRITE call (an AUTH_UNIX
// credential plus two NFS_MAXNAMLEN names and a couple of handles still
// fits with room to spare) but nowhere near a WRITE payload, so the
// bufpool — the server's only back-pressure knob — is never touched by
// ordinary small requests (spec's capacity bound is WRITE body + READ
// reply bytes only, not every request on the wire).
const maxInlineRead = 4096

var zeroPad [4]byte

// connection serves one accepted TCP connection: it reads record-marked
// RPC fragments in wire order, and dispatches each decoded call into a
// goroutine bounded by requestSem so that independent requests can run
// concurrently while still being read off the wire synchronously.
type connection struct {
	server *Server
	conn   net.Conn
	connID uint64

	requestSem chan struct{}
	wg         sync.WaitGroup
	writeMu    sync.Mutex
}

func newConnection(s *Server, conn net.Conn, connID uint64) *connection {
	max := s.cfg.MaxRequestsPerConnection
	if max <= 0 {
		max = 1
	}
	return &connection{
		server:     s,
		conn:       conn,
		connID:     connID,
		requestSem: make(chan struct{}, max),
	}
}

func (c *connection) clientAddr() string {
	return c.conn.RemoteAddr().String()
}

// clientHost returns the client's address with the port stripped, the
// identity MOUNT's registry keys mounts by.
func (c *connection) clientHost() string {
	host, _, err := net.SplitHostPort(c.clientAddr())
	if err != nil {
		return c.clientAddr()
	}
	return host
}

// decodedRequest is one fully-read RPC call. For an ordinary call, args
// is the flat remainder of the fragment after the call header. For an
// NFS WRITE call, the fixed fields are decoded into writeHdr and the
// data payload is staged directly in pool memory as writeData, bypassing
// the args/Dispatch path entirely.
type decodedRequest struct {
	header    *rpc.CallHeader
	args      []byte
	writeHdr  *nfs3.WriteHeader
	writeData *bufpool.Slice
}

// reply is one fully-built RPC reply. header is always present. payload,
// when set, is streamed to the socket after header and then closed;
// pad is the XDR alignment padding that follows payload on the wire.
type reply struct {
	header  []byte
	payload *bufpool.Slice
	pad     int
}

// Serve reads and dispatches requests until the connection closes, the
// context is cancelled, or an unrecoverable read error occurs.
func (c *connection) Serve(ctx context.Context) {
	defer c.handleClose()

	ctx = logger.WithContext(ctx, logger.NewLogContext(c.connID, c.clientAddr()))
	logger.DebugCtx(ctx, "connection accepted")

	idle := c.server.cfg.Timeouts.Idle
	if idle > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(idle))
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, xid, err := c.readRequest(ctx)
		if err != nil {
			var versionErr *rpc.ErrRPCVersionMismatch
			if errors.As(err, &versionErr) {
				r := reply{header: rpc.MakeRPCMismatchReply(xid, rpcVersionLow, rpcVersionHigh)}
				if werr := c.writeReply(r); werr != nil {
					logger.Debug("error writing RPC_MISMATCH reply", logger.ConnectionID(c.connID), logger.Err(werr))
					return
				}
				continue
			}
			c.logReadError(err)
			return
		}

		c.requestSem <- struct{}{}
		c.wg.Add(1)
		go func(req decodedRequest) {
			defer c.finishRequest(req.header.XID)
			c.processRequest(ctx, req)
		}(req)

		if idle > 0 {
			_ = c.conn.SetDeadline(time.Now().Add(idle))
		}
	}
}

func (c *connection) logReadError(err error) {
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("connection closed by client", logger.ConnectionID(c.connID))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("connection cancelled", logger.ConnectionID(c.connID))
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			logger.Debug("connection timed out", logger.ConnectionID(c.connID))
			return
		}
		logger.Debug("error reading request", logger.ConnectionID(c.connID), logger.Err(err))
	}
}

// readRequest reads one record-marked fragment's call header (and, for
// everything but an NFS WRITE, its full argument body) into a small
// non-pooled heap buffer, then decodes the RPC call header. A WRITE
// call's data payload is diverted into readWriteFastPath instead, so it
// lands in pool memory without an intermediate heap copy.
//
// xid is returned alongside any error: the RFC 5531 call header leads
// with the transaction id before the rpc_version field that
// ErrRPCVersionMismatch reports on, so the caller can still reply
// MSG_DENIED/RPC_MISMATCH with the right xid even when ReadCallHeader
// itself failed.
func (c *connection) readRequest(ctx context.Context) (decodedRequest, uint32, error) {
	readTimeout := c.server.cfg.Timeouts.Read
	if readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return decodedRequest{}, 0, fmt.Errorf("session: set read deadline: %w", err)
		}
	}

	fragHeader, err := rpc.ReadFragmentHeader(c.conn)
	if err != nil {
		return decodedRequest{}, 0, err
	}
	if err := rpc.ValidateFragmentSize(fragHeader.Length, fragHeader.IsLast); err != nil {
		return decodedRequest{}, 0, err
	}

	headLen := int(fragHeader.Length)
	if headLen > maxInlineRead {
		headLen = maxInlineRead
	}
	head := make([]byte, headLen)
	if _, err := io.ReadFull(c.conn, head); err != nil {
		return decodedRequest{}, 0, fmt.Errorf("session: read fragment head: %w", err)
	}

	d := xdr.NewDecoder(head)
	header, err := rpc.ReadCallHeader(d)
	if err != nil {
		var xid uint32
		if len(head) >= 4 {
			xid = uint32(head[0])<<24 | uint32(head[1])<<16 | uint32(head[2])<<8 | uint32(head[3])
		}
		return decodedRequest{}, xid, err
	}

	if header.Program == nfs3.Program && header.Procedure == nfs3.ProcWrite {
		return c.readWriteFastPath(ctx, d, header, head)
	}

	remainingInFrag := int(fragHeader.Length) - headLen
	args := head[d.Offset():]
	if remainingInFrag > 0 {
		full := make([]byte, len(args)+remainingInFrag)
		n := copy(full, args)
		if _, err := io.ReadFull(c.conn, full[n:]); err != nil {
			return decodedRequest{}, header.XID, fmt.Errorf("session: read fragment tail: %w", err)
		}
		args = full
	}

	return decodedRequest{header: header, args: args}, header.XID, nil
}

// readWriteFastPath decodes a WRITE call's fixed fields from head (the
// bytes already read for the call header), then allocates a pool Slice
// sized exactly to the declared data length — not the whole fragment —
// and fills it from whatever data bytes already landed in head plus a
// direct read of the rest from the socket. The XDR padding that follows
// the data on the wire is consumed separately, since it is framing, not
// payload, and has no business occupying pool memory.
func (c *connection) readWriteFastPath(ctx context.Context, d *xdr.Decoder, header *rpc.CallHeader, head []byte) (decodedRequest, uint32, error) {
	wh, err := nfs3.DecodeWriteHeader(d)
	if err != nil {
		return decodedRequest{}, header.XID, err
	}

	dataOffset := d.Offset()
	availableInHead := len(head) - dataOffset
	alreadyLen := availableInHead
	if alreadyLen > int(wh.DataLen) {
		alreadyLen = int(wh.DataLen)
	}
	if alreadyLen < 0 {
		alreadyLen = 0
	}

	slice, err := c.server.pool.Allocate(ctx, int(wh.DataLen))
	if err != nil {
		return decodedRequest{}, header.XID, fmt.Errorf("session: allocate write buffer: %w", err)
	}

	if _, err := slice.FillFrom(head[dataOffset:dataOffset+alreadyLen], c.conn); err != nil {
		slice.Close()
		return decodedRequest{}, header.XID, fmt.Errorf("session: read write payload: %w", err)
	}

	pad := (4 - int(wh.DataLen)%4) % 4
	paddingAlreadyInHead := availableInHead - alreadyLen
	if remainingPad := pad - paddingAlreadyInHead; remainingPad > 0 {
		discard := make([]byte, remainingPad)
		if _, err := io.ReadFull(c.conn, discard); err != nil {
			slice.Close()
			return decodedRequest{}, header.XID, fmt.Errorf("session: read write padding: %w", err)
		}
	}

	return decodedRequest{header: header, writeHdr: &wh, writeData: slice}, header.XID, nil
}

func (c *connection) finishRequest(xid uint32) {
	<-c.requestSem
	c.wg.Done()
	if r := recover(); r != nil {
		logger.Error("panic in request handler",
			logger.ConnectionID(c.connID), logger.XID(xid),
			"panic", r, "stack", string(debug.Stack()))
	}
}

// processRequest dispatches one decoded call to the right program and
// writes its reply. Backend and procedure-level errors are already
// encoded into the procedure's own result body (nfsstat3/mountstat3 are
// not RPC-reply-layer errors); only framing, decode, and routing
// failures are handled here.
func (c *connection) processRequest(ctx context.Context, req decodedRequest) {
	header := req.header
	var r reply

	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithCall(header.Program, header.Procedure, header.XID))
	}

	switch header.Program {
	case nfs3.Program:
		r = c.dispatchNFS(ctx, header, req)
	case mountd.Program:
		r = c.dispatchMount(ctx, header, req.args)
	default:
		logger.DebugCtx(ctx, "unrecognized program")
		r = reply{header: rpc.MakeProgUnavailReply(header.XID)}
	}

	if r.header == nil {
		return
	}
	if err := c.writeReply(r); err != nil {
		logger.DebugCtx(ctx, "error writing reply", logger.Err(err))
	}
}

func (c *connection) dispatchNFS(ctx context.Context, header *rpc.CallHeader, req decodedRequest) reply {
	if header.Version != nfs3.Version {
		rb, err := rpc.MakeProgMismatchReply(header.XID, supportedVersionLow, supportedVersionHigh)
		if err != nil {
			return reply{header: rpc.MakeSystemErrReply(header.XID)}
		}
		return reply{header: rb}
	}

	if req.writeHdr != nil {
		defer req.writeData.Close()
		result, err := nfs3.FinishWrite(ctx, c.server.fs, *req.writeHdr, req.writeData.Segments())
		return encodeNFSResult(header.XID, result, err)
	}

	result, err := nfs3.Dispatch(ctx, c.server.fs, c.server.pool, header.Procedure, req.args)
	return encodeNFSResult(header.XID, result, err)
}

// encodeNFSResult turns a Dispatch/FinishWrite outcome into a finished
// reply: a header-only Result goes through MakeSuccessReply as before; a
// Result carrying a pool Payload (a READ's data) is split into a prefix
// (computed with the total length known up front, as record-marking
// framing requires) and the Slice itself, which writeReply streams
// directly to the socket without an intermediate copy.
func encodeNFSResult(xid uint32, result nfs3.Result, err error) reply {
	if err != nil {
		return reply{header: encodeDispatchError(xid, err)}
	}
	if result.Payload == nil {
		return reply{header: rpc.MakeSuccessReply(xid, result.Header)}
	}
	prefix, pad := rpc.MakeSuccessReplyHeader(xid, result.Header, result.Payload.Len())
	return reply{header: prefix, payload: result.Payload, pad: pad}
}

func (c *connection) dispatchMount(ctx context.Context, header *rpc.CallHeader, args []byte) reply {
	if header.Version != mountd.Version {
		rb, err := rpc.MakeProgMismatchReply(header.XID, supportedVersionLow, supportedVersionHigh)
		if err != nil {
			return reply{header: rpc.MakeSystemErrReply(header.XID)}
		}
		return reply{header: rb}
	}

	body, err := mountd.Dispatch(ctx, c.server.registry, c.clientHost(), header.Procedure, args)
	if err != nil {
		return reply{header: encodeDispatchError(header.XID, err)}
	}
	return reply{header: rpc.MakeSuccessReply(header.XID, body)}
}

// encodeDispatchError translates a Dispatch failure to the matching
// RPC-layer reject/accept code; success paths never reach this, since
// backend and procedure-level failures are already encoded into the
// procedure's own result body (see encodeNFSResult/dispatchMount).
func encodeDispatchError(xid uint32, err error) []byte {
	var procUnavail *nfs3.ErrProcUnavail
	var mountProcUnavail *mountd.ErrProcUnavail
	switch {
	case errors.As(err, &procUnavail), errors.As(err, &mountProcUnavail):
		return rpc.MakeProcUnavailReply(xid)
	case errors.Is(err, xdr.ErrNeedMore),
		errors.Is(err, xdr.ErrEnumDiscMismatch),
		errors.Is(err, xdr.ErrIncorrectString),
		errors.Is(err, xdr.ErrIncorrectPadding),
		errors.Is(err, xdr.ErrMaxElemLimit):
		return rpc.MakeGarbageArgsReply(xid)
	default:
		return rpc.MakeSystemErrReply(xid)
	}
}

func (c *connection) writeReply(r reply) error {
	if r.payload != nil {
		defer r.payload.Close()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	writeTimeout := c.server.cfg.Timeouts.Read
	if writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	}

	if _, err := c.conn.Write(r.header); err != nil {
		return err
	}
	if r.payload == nil {
		return nil
	}
	if _, err := r.payload.WriteTo(c.conn); err != nil {
		return err
	}
	if r.pad > 0 {
		if _, err := c.conn.Write(zeroPad[:r.pad]); err != nil {
			return err
		}
	}
	return nil
}

func (c *connection) handleClose() {
	if r := recover(); r != nil {
		logger.Error("panic in connection handler",
			logger.ConnectionID(c.connID), "panic", r, "stack", string(debug.Stack()))
	}
	c.wg.Wait()
	_ = c.conn.Close()
	logger.Debug("connection closed", logger.ConnectionID(c.connID))
}
