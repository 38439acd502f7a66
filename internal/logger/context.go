package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds the per-connection and per-call fields this core
// actually logs by: which connection accepted the call, the RPC program
// and procedure it carries, the client's address, and (once AUTH_SYS
// credentials are parsed) the effective uid/gid. connection.Serve stashes
// one on the connection's context at accept time and refines it with
// WithCall for every dispatched request, so DebugCtx/InfoCtx/WarnCtx/
// ErrorCtx call sites don't have to repeat ConnectionID/ClientAddr/XID by
// hand the way the plain Debug/Info/Warn/Error calls elsewhere still do.
type LogContext struct {
	ConnectionID uint64
	ClientAddr   string
	Program      uint32
	Procedure    uint32
	XID          uint32
	UID          uint32
	GID          uint32
	StartTime    time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates the connection-scoped LogContext recorded once at
// accept time: connection id, client address, and a start time for
// connection-lifetime duration logging.
func NewLogContext(connID uint64, clientAddr string) *LogContext {
	return &LogContext{
		ConnectionID: connID,
		ClientAddr:   clientAddr,
		StartTime:    time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		ConnectionID: lc.ConnectionID,
		ClientAddr:   lc.ClientAddr,
		Program:      lc.Program,
		Procedure:    lc.Procedure,
		XID:          lc.XID,
		UID:          lc.UID,
		GID:          lc.GID,
		StartTime:    lc.StartTime,
	}
}

// WithCall returns a copy carrying one dispatched call's program,
// procedure, and transaction id, resetting StartTime to now so
// DurationMs measures that call rather than the whole connection.
func (lc *LogContext) WithCall(program, procedure, xid uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Program = program
		clone.Procedure = procedure
		clone.XID = xid
		clone.StartTime = time.Now()
	}
	return clone
}

// WithAuth returns a copy with AUTH_SYS credentials set.
func (lc *LogContext) WithAuth(uid, gid uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.UID = uid
		clone.GID = gid
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
