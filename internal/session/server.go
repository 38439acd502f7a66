// Package session implements the TCP accept loop and per-connection RPC
// engine that sits on top of internal/rpc, internal/nfs3, and
// internal/mountd: it owns the listener, the shared buffer pool, and the
// graceful-shutdown coordination that the rest of this core is blind to.
package session

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/go-nfsd/nfsd3/internal/bufpool"
	"github.com/go-nfsd/nfsd3/internal/config"
	"github.com/go-nfsd/nfsd3/internal/logger"
	"github.com/go-nfsd/nfsd3/internal/mountd"
	"github.com/go-nfsd/nfsd3/internal/vfs"
)

// Server accepts TCP connections and dispatches NFS and MOUNT RPC calls
// against a single backing Vfs/Registry pair. One Server answers both ONC
// RPC programs on the same listening socket, matching how this core's
// single in-memory export needs no portmapper-style program separation.
type Server struct {
	cfg      config.ServerConfig
	fs       vfs.Vfs
	registry mountd.Registry
	pool     *bufpool.Pool

	instanceID string

	listenerMu sync.RWMutex
	listener   net.Listener

	activeConns   sync.WaitGroup
	connCount     atomic.Int64
	nextConnID    atomic.Uint64
	shutdownOnce  sync.Once
	shutdown      chan struct{}
	shutdownCtx   context.Context
	cancelInFlight context.CancelFunc
}

// New constructs a Server. fs and registry are typically backed by the
// same in-memory backend, but the interfaces keep the session engine
// agnostic of that.
func New(cfg config.ServerConfig, fs vfs.Vfs, registry mountd.Registry, pool *bufpool.Pool) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:            cfg,
		fs:             fs,
		registry:       registry,
		pool:           pool,
		instanceID:     uuid.New().String(),
		shutdown:       make(chan struct{}),
		shutdownCtx:    ctx,
		cancelInFlight: cancel,
	}
}

// ListenAndServe binds cfg.ListenAddr and accepts connections until ctx
// is cancelled or Stop is called, whichever happens first.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("session: listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	logger.Info("nfsd3 listening", logger.InstanceID(s.instanceID), "address", s.cfg.ListenAddr)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return s.waitForDrain()
			default:
				logger.Debug("session: accept error", logger.Err(err))
				continue
			}
		}

		connID := s.nextConnID.Add(1)
		s.activeConns.Add(1)
		s.connCount.Add(1)
		c := newConnection(s, conn, connID)

		go func() {
			defer func() {
				s.activeConns.Done()
				s.connCount.Add(-1)
			}()
			c.Serve(s.shutdownCtx)
		}()
	}
}

// Stop begins graceful shutdown: the listener is closed immediately, new
// connections stop being accepted, and every in-flight request's context
// is cancelled so long-running handlers can abort.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		s.listenerMu.RLock()
		l := s.listener
		s.listenerMu.RUnlock()
		if l != nil {
			if err := l.Close(); err != nil {
				logger.Debug("session: error closing listener", logger.Err(err))
			}
		}

		s.cancelInFlight()
	})
}

// waitForDrain blocks until every accepted connection's Serve goroutine
// has returned or cfg.Timeouts.Shutdown elapses, whichever comes first.
func (s *Server) waitForDrain() error {
	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	timeout := s.cfg.Timeouts.Shutdown
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	select {
	case <-done:
		logger.Info("nfsd3 shutdown complete")
		return nil
	case <-time.After(timeout):
		remaining := s.connCount.Load()
		logger.Warn("nfsd3 shutdown timeout exceeded", "remaining_connections", remaining)
		return fmt.Errorf("session: shutdown timeout with %d connections still active", remaining)
	}
}
