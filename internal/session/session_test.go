package session

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-nfsd/nfsd3/internal/backend/memory"
	"github.com/go-nfsd/nfsd3/internal/bufpool"
	"github.com/go-nfsd/nfsd3/internal/config"
	"github.com/go-nfsd/nfsd3/internal/mountd"
	"github.com/go-nfsd/nfsd3/internal/nfs3"
	"github.com/go-nfsd/nfsd3/internal/rpc"
	"github.com/go-nfsd/nfsd3/internal/vfs"
	"github.com/go-nfsd/nfsd3/internal/xdr"
)

// encodeCallWithArgs is encodeCall plus an already-encoded argument body,
// used by tests that exercise a real NFS procedure rather than NULL.
func encodeCallWithArgs(xid, program, version, procedure uint32, args []byte) []byte {
	call := encodeCall(xid, program, version, procedure)
	// encodeCall's frame header covers only the fixed call fields; rebuild
	// it to cover args too rather than patching the length in place.
	body := make([]byte, 0, len(call)-4+len(args))
	body = append(body, call[4:]...)
	body = append(body, args...)
	frame := rpc.EncodeFragmentHeader(uint32(len(body)))
	return append(frame, body...)
}

// encodeCall builds a minimal single-fragment RPC call with AUTH_NONE
// credentials and verifier, the shape every test in this file sends.
func encodeCall(xid, program, version, procedure uint32) []byte {
	var body []byte
	put32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		body = append(body, b[:]...)
	}
	put32(xid)
	put32(rpc.RPCCall)
	put32(rpc.RPCVersion)
	put32(program)
	put32(version)
	put32(procedure)
	put32(rpc.AuthNull) // cred flavor
	put32(0)            // cred length
	put32(rpc.AuthNull) // verf flavor
	put32(0)            // verf length

	frame := rpc.EncodeFragmentHeader(uint32(len(body)))
	return append(frame, body...)
}

func readReply(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	var hdr [4]byte
	_, err := io.ReadFull(conn, hdr[:])
	require.NoError(t, err)
	length := binary.BigEndian.Uint32(hdr[:]) &^ 0x80000000
	payload := make([]byte, length)
	_, err = io.ReadFull(conn, payload)
	require.NoError(t, err)
	return payload
}

func newTestServer(t *testing.T) (*Server, net.Listener) {
	t.Helper()
	backend := memory.New()
	registry := memory.NewRegistry(backend, []string{"*"})
	pool, err := bufpool.New(64*1024, 8)
	require.NoError(t, err)

	cfg := config.ServerConfig{
		ListenAddr:               "127.0.0.1:0",
		MaxRequestsPerConnection: 10,
		Timeouts: config.TimeoutsConfig{
			Read:     5 * time.Second,
			Idle:     5 * time.Second,
			Shutdown: 2 * time.Second,
		},
	}
	srv := New(cfg, backend, registry, pool)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	require.NoError(t, err)
	return srv, listener
}

// newTestServerWithBackend is newTestServer plus direct access to the
// backend, for tests that need a handle to operate on without going
// through MOUNT first.
func newTestServerWithBackend(t *testing.T) (*Server, net.Listener, *memory.Backend) {
	t.Helper()
	backend := memory.New()
	registry := memory.NewRegistry(backend, []string{"*"})
	pool, err := bufpool.New(64*1024, 8)
	require.NoError(t, err)

	cfg := config.ServerConfig{
		ListenAddr:               "127.0.0.1:0",
		MaxRequestsPerConnection: 10,
		Timeouts: config.TimeoutsConfig{
			Read:     5 * time.Second,
			Idle:     5 * time.Second,
			Shutdown: 2 * time.Second,
		},
	}
	srv := New(cfg, backend, registry, pool)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	require.NoError(t, err)
	return srv, listener, backend
}

// serveOn runs one accepted connection from listener through the
// server's connection engine, without going through ListenAndServe's own
// accept loop (which owns the listener lifecycle already exercised by
// TestListenAndServeRespondsToNullCalls below).
func serveOn(srv *Server, listener net.Listener) {
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		c := newConnection(srv, conn, 1)
		c.Serve(context.Background())
	}()
}

func TestNFSNullCallSucceeds(t *testing.T) {
	srv, listener := newTestServer(t)
	defer listener.Close()
	serveOn(srv, listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(encodeCall(42, nfs3.Program, nfs3.Version, nfs3.ProcNull))
	require.NoError(t, err)

	reply := readReply(t, conn)
	assertAcceptedSuccess(t, reply, 42)
}

func TestMountNullCallSucceeds(t *testing.T) {
	srv, listener := newTestServer(t)
	defer listener.Close()
	serveOn(srv, listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(encodeCall(7, mountd.Program, mountd.Version, mountd.ProcNull))
	require.NoError(t, err)

	reply := readReply(t, conn)
	assertAcceptedSuccess(t, reply, 7)
}

func TestUnknownProgramReturnsProgUnavail(t *testing.T) {
	srv, listener := newTestServer(t)
	defer listener.Close()
	serveOn(srv, listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(encodeCall(1, 999999, 3, 0))
	require.NoError(t, err)

	reply := readReply(t, conn)
	require.GreaterOrEqual(t, len(reply), 24)
	acceptStat := binary.BigEndian.Uint32(reply[20:24])
	assert.Equal(t, rpc.RPCProgUnavail, acceptStat)
}

func TestUnsupportedNFSVersionReturnsProgMismatch(t *testing.T) {
	srv, listener := newTestServer(t)
	defer listener.Close()
	serveOn(srv, listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(encodeCall(3, nfs3.Program, 4, nfs3.ProcNull))
	require.NoError(t, err)

	reply := readReply(t, conn)
	require.GreaterOrEqual(t, len(reply), 32)
	acceptStat := binary.BigEndian.Uint32(reply[20:24])
	assert.Equal(t, rpc.RPCProgMismatch, acceptStat)
	low := binary.BigEndian.Uint32(reply[24:28])
	high := binary.BigEndian.Uint32(reply[28:32])
	assert.Equal(t, uint32(3), low)
	assert.Equal(t, uint32(3), high)
}

// assertAcceptedSuccess checks the common accepted-reply prefix: xid,
// msg_type=REPLY, reply_stat=MSG_ACCEPTED, AUTH_NONE verifier (flavor +
// zero-length body), and accept_stat=SUCCESS.
func assertAcceptedSuccess(t *testing.T, reply []byte, xid uint32) {
	t.Helper()
	require.GreaterOrEqual(t, len(reply), 24)
	assert.Equal(t, xid, binary.BigEndian.Uint32(reply[0:4]))
	assert.Equal(t, rpc.RPCReply, binary.BigEndian.Uint32(reply[4:8]))
	assert.Equal(t, rpc.RPCMsgAccepted, binary.BigEndian.Uint32(reply[8:12]))
	assert.Equal(t, rpc.AuthNull, binary.BigEndian.Uint32(reply[12:16]))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(reply[16:20]))
	acceptStat := binary.BigEndian.Uint32(reply[20:24])
	assert.Equal(t, rpc.RPCSuccess, acceptStat)
}

// TestWriteThenReadRoundTrip exercises the connection engine's WRITE fast
// path and READ pool-Slice path end to end over a real socket: a CREATE
// establishes a file handle, a WRITE lands its data straight into pool
// memory via readWriteFastPath, and a READ streams it back via the
// payload branch of writeReply, never passing through Dispatch's
// generic flat-[]byte path for either.
func TestWriteThenReadRoundTrip(t *testing.T) {
	srv, listener, backend := newTestServerWithBackend(t)
	defer listener.Close()
	serveOn(srv, listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	root := backend.RootHandle()

	createArgs := xdr.NewEncoder()
	createArgs.OpaqueBounded(root[:])
	createArgs.StringBounded("roundtrip.txt")
	createArgs.Discriminant(0) // createhow3: UNCHECKED
	createArgs.Bool(false)     // sattr3.mode
	createArgs.Bool(false)     // sattr3.uid
	createArgs.Bool(false)     // sattr3.gid
	createArgs.Bool(false)     // sattr3.size
	createArgs.Discriminant(0) // atime: DONT_CHANGE
	createArgs.Discriminant(0) // mtime: DONT_CHANGE

	_, err = conn.Write(encodeCallWithArgs(1, nfs3.Program, nfs3.Version, nfs3.ProcCreate, createArgs.Bytes()))
	require.NoError(t, err)
	createReply := readReply(t, conn)
	assertAcceptedSuccess(t, createReply, 1)

	cd := xdr.NewDecoder(createReply[24:])
	status, err := cd.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(nfs3.StatusOK), status)
	handlePresent, err := cd.Bool()
	require.NoError(t, err)
	require.True(t, handlePresent)
	handleBytes, err := cd.OpaqueBounded(nfs3.MaxHandleLen)
	require.NoError(t, err)
	var fileHandle vfs.Handle
	copy(fileHandle[:], handleBytes)

	payload := []byte("hello from the wire, this is a write fast path test")

	writeArgs := xdr.NewEncoder()
	writeArgs.OpaqueBounded(fileHandle[:])
	writeArgs.Uint64(0)
	writeArgs.Uint32(uint32(len(payload)))
	writeArgs.Discriminant(uint32(vfs.FileSync))
	writeArgs.OpaqueBounded(payload)

	_, err = conn.Write(encodeCallWithArgs(2, nfs3.Program, nfs3.Version, nfs3.ProcWrite, writeArgs.Bytes()))
	require.NoError(t, err)
	writeReplyBytes := readReply(t, conn)
	assertAcceptedSuccess(t, writeReplyBytes, 2)

	wd := xdr.NewDecoder(writeReplyBytes[24:])
	wstatus, err := wd.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(nfs3.StatusOK), wstatus)

	readArgs := xdr.NewEncoder()
	readArgs.OpaqueBounded(fileHandle[:])
	readArgs.Uint64(0)
	readArgs.Uint32(uint32(len(payload)))

	_, err = conn.Write(encodeCallWithArgs(3, nfs3.Program, nfs3.Version, nfs3.ProcRead, readArgs.Bytes()))
	require.NoError(t, err)
	readReplyBytes := readReply(t, conn)
	assertAcceptedSuccess(t, readReplyBytes, 3)

	rd := xdr.NewDecoder(readReplyBytes[24:])
	rstatus, err := rd.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(nfs3.StatusOK), rstatus)

	attrPresent, err := rd.Bool()
	require.NoError(t, err)
	require.True(t, attrPresent)
	_, err = rd.FixedArray(84) // post_op_attr body: type..ctime, all 4/8-byte fields
	require.NoError(t, err)

	count, err := rd.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(len(payload)), count)
	eof, err := rd.Bool()
	require.NoError(t, err)
	assert.True(t, eof)
	dataLen, err := rd.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(len(payload)), dataLen)
	data, err := rd.FixedOpaque(int(dataLen))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}
