package rpc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-nfsd/nfsd3/internal/xdr"
)

func decodeFragment(t *testing.T, wire []byte) *xdr.Decoder {
	t.Helper()
	require.GreaterOrEqual(t, len(wire), 4)
	hdr, err := ReadFragmentHeader(bytes.NewReader(wire[:4]))
	require.NoError(t, err)
	assert.True(t, hdr.IsLast)
	assert.Equal(t, uint32(len(wire)-4), hdr.Length)
	return xdr.NewDecoder(wire[4:])
}

func TestMakeProgMismatchReply(t *testing.T) {
	t.Run("GeneratesValidReply", func(t *testing.T) {
		wire, err := MakeProgMismatchReply(7, 3, 3)
		require.NoError(t, err)
		d := decodeFragment(t, wire)

		xid, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(7), xid)

		msgType, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(RPCReply), msgType)

		replyStat, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(RPCMsgAccepted), replyStat)

		verfFlavor, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(AuthNull), verfFlavor)
		verfLen, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(0), verfLen)

		acceptStat, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(RPCProgMismatch), acceptStat)
	})

	t.Run("EncodesVersionRange", func(t *testing.T) {
		wire, err := MakeProgMismatchReply(1, 2, 3)
		require.NoError(t, err)
		d := decodeFragment(t, wire)
		for i := 0; i < 6; i++ {
			_, err := d.Uint32()
			require.NoError(t, err)
		}
		low, err := d.Uint32()
		require.NoError(t, err)
		high, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(2), low)
		assert.Equal(t, uint32(3), high)
		assert.Equal(t, 0, d.Remaining())
	})

	t.Run("HandlesSameVersionForLowAndHigh", func(t *testing.T) {
		_, err := MakeProgMismatchReply(1, 3, 3)
		require.NoError(t, err)
	})

	t.Run("RejectsInvalidVersionRange", func(t *testing.T) {
		_, err := MakeProgMismatchReply(1, 4, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid version range")
		assert.Contains(t, err.Error(), "low (4) > high (3)")
	})

	t.Run("HandlesZeroXID", func(t *testing.T) {
		wire, err := MakeProgMismatchReply(0, 1, 1)
		require.NoError(t, err)
		d := decodeFragment(t, wire)
		xid, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(0), xid)
	})

	t.Run("HandlesMaxXID", func(t *testing.T) {
		wire, err := MakeProgMismatchReply(0xFFFFFFFF, 1, 1)
		require.NoError(t, err)
		d := decodeFragment(t, wire)
		xid, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(0xFFFFFFFF), xid)
	})

	t.Run("ContainsProgMismatchStatus", func(t *testing.T) {
		wire, err := MakeProgMismatchReply(9, 1, 2)
		require.NoError(t, err)
		d := decodeFragment(t, wire)
		for i := 0; i < 5; i++ {
			_, err := d.Uint32()
			require.NoError(t, err)
		}
		acceptStat, err := d.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(RPCProgMismatch), acceptStat)
	})
}

func TestMakeSuccessReply(t *testing.T) {
	body := []byte{0, 0, 0, 0, 0xDE, 0xAD, 0xBE, 0xEF}
	wire := MakeSuccessReply(11, body)
	d := decodeFragment(t, wire)
	for i := 0; i < 5; i++ {
		_, err := d.Uint32()
		require.NoError(t, err)
	}
	acceptStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCSuccess), acceptStat)
	assert.Equal(t, 8, d.Remaining())
}

func TestMakeProgUnavailReply(t *testing.T) {
	wire := MakeProgUnavailReply(3)
	d := decodeFragment(t, wire)
	for i := 0; i < 5; i++ {
		_, err := d.Uint32()
		require.NoError(t, err)
	}
	acceptStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCProgUnavail), acceptStat)
	assert.Equal(t, 0, d.Remaining())
}

func TestMakeProcUnavailReply(t *testing.T) {
	wire := MakeProcUnavailReply(3)
	d := decodeFragment(t, wire)
	for i := 0; i < 5; i++ {
		_, err := d.Uint32()
		require.NoError(t, err)
	}
	acceptStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCProcUnavail), acceptStat)
}

func TestMakeGarbageArgsReply(t *testing.T) {
	wire := MakeGarbageArgsReply(3)
	d := decodeFragment(t, wire)
	for i := 0; i < 5; i++ {
		_, err := d.Uint32()
		require.NoError(t, err)
	}
	acceptStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCGarbageArgs), acceptStat)
}

func TestMakeSystemErrReply(t *testing.T) {
	wire := MakeSystemErrReply(3)
	d := decodeFragment(t, wire)
	for i := 0; i < 5; i++ {
		_, err := d.Uint32()
		require.NoError(t, err)
	}
	acceptStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCSystemErr), acceptStat)
}

func TestMakeRPCMismatchReply(t *testing.T) {
	wire := MakeRPCMismatchReply(5, 2, 2)
	d := decodeFragment(t, wire)

	xid, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), xid)

	msgType, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCReply), msgType)

	replyStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCMsgDenied), replyStat)

	rejectStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCMismatch), rejectStat)

	low, err := d.Uint32()
	require.NoError(t, err)
	high, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), low)
	assert.Equal(t, uint32(2), high)
	assert.Equal(t, 0, d.Remaining())
}

func TestMakeAuthErrorReply(t *testing.T) {
	wire := MakeAuthErrorReply(5, AuthStatBadCred)
	d := decodeFragment(t, wire)

	for i := 0; i < 3; i++ {
		_, err := d.Uint32()
		require.NoError(t, err)
	}
	rejectStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(RPCAuthErr), rejectStat)

	authStat, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(AuthStatBadCred), authStat)
	assert.Equal(t, 0, d.Remaining())
}
