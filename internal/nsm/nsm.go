// Package nsm sketches the Network Status Monitor (NSM) protocol
// surface NLM depends on to learn when a client or server has rebooted,
// so held locks can be released or reclaimed. As with internal/nlm, this
// is a wire-vocabulary-and-interface sketch: no handler here actually
// tracks host state.
package nsm

import (
	"context"
	"errors"
)

// Program and Version are NSM's RPC program/version.
const (
	Program uint32 = 100024
	Version uint32 = 1
)

// PrivateLen bounds the opaque client-private data carried in a
// MonitorRequest and echoed back on notification.
const PrivateLen = 16

// ErrNotImplemented is returned by every Service method.
var ErrNotImplemented = errors.New("nsm: not implemented")

// Result is the sm_stat_res status enumeration.
type Result uint32

const (
	StatSucc Result = iota
	StatFail
)

// HostName identifies a monitored host by its NSM-registered name.
type HostName string

// HostState is a monotonically increasing counter a host advertises;
// clients compare it across SM_NOTIFY calls to detect a reboot.
type HostState uint32

// WatcherID identifies who asked to be notified when a host changes
// state: the NLM program/version/procedure to call back on notification.
type WatcherID struct {
	Name    HostName
	Program uint32
	Version uint32
	Proc    uint32
}

// MonitorRequest is SM_MON's argument: watch MonHost, notify Watcher
// when it changes state, and echo Private back unmodified.
type MonitorRequest struct {
	MonHost HostName
	Watcher WatcherID
	Private [PrivateLen]byte
}

// MonitorResult is SM_MON/SM_UNMON's result.
type MonitorResult struct {
	Status Result
	State  HostState
}

// Notification is SM_NOTIFY's argument: the host's new state, delivered
// to every registered watcher.
type Notification struct {
	Name  HostName
	State HostState
}

// Service is the status-monitor capability set NLM depends on for crash
// recovery semantics. No component in this core implements it.
type Service interface {
	Monitor(ctx context.Context, req MonitorRequest) (MonitorResult, error)
	Unmonitor(ctx context.Context, host HostName, private [PrivateLen]byte) (MonitorResult, error)
	UnmonitorAll(ctx context.Context) error
	Notify(ctx context.Context, n Notification) error
}

// Unimplemented is a Service that rejects every call with
// ErrNotImplemented, standing in until a real status monitor exists.
type Unimplemented struct{}

var _ Service = Unimplemented{}

func (Unimplemented) Monitor(ctx context.Context, req MonitorRequest) (MonitorResult, error) {
	return MonitorResult{}, ErrNotImplemented
}

func (Unimplemented) Unmonitor(ctx context.Context, host HostName, private [PrivateLen]byte) (MonitorResult, error) {
	return MonitorResult{}, ErrNotImplemented
}

func (Unimplemented) UnmonitorAll(ctx context.Context) error {
	return ErrNotImplemented
}

func (Unimplemented) Notify(ctx context.Context, n Notification) error {
	return ErrNotImplemented
}
