package api

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/cuemby/coldb/pkg/bulkload"
	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/log"
	"github.com/cuemby/coldb/pkg/manager"
	"github.com/cuemby/coldb/pkg/metrics"
	"github.com/cuemby/coldb/pkg/scheduler"
	"github.com/cuemby/coldb/pkg/snapshot"
	"github.com/cuemby/coldb/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
)

// Server accepts connections on coldb's Unix-domain DSL socket and
// dispatches each newline-delimited statement (spec.md §6.1) to the
// manager/executor/scheduler/join/bulkload layers. The stream-socket
// transport is out of scope for the engine itself (spec.md §1), so this is
// deliberately the thinnest loop that satisfies §5's threading model: one
// goroutine per connection, plus the scheduler's own worker pool entered on
// batch_queries.
type Server struct {
	cfg    config.Config
	logger zerolog.Logger

	manager *manager.Manager
	loader  *bulkload.Loader
	sched   *scheduler.Scheduler
	snap    *snapshot.Snapshotter

	listener net.Listener
}

// NewServer wires a Server against an already-opened Manager.
func NewServer(mgr *manager.Manager, cfg config.Config) *Server {
	return &Server{
		cfg:     cfg,
		logger:  log.WithComponent("api"),
		manager: mgr,
		loader:  bulkload.New(mgr),
		sched:   scheduler.New(cfg.WorkerPoolSize),
		snap:    snapshot.New(mgr, time.Duration(cfg.SnapshotIntervalSeconds)*time.Second),
	}
}

// Serve listens on cfg.SocketPath and blocks, dispatching one goroutine per
// accepted connection, until the listener is closed by Stop, which a
// shutdown statement also triggers (spec.md §4.12, §6.3). Connections
// beyond cfg.MaxConnections queue at the kernel accept backlog via
// netutil.LimitListener rather than being dispatched immediately (spec.md
// §5 "one thread per connected client").
func (s *Server) Serve() error {
	if err := os.RemoveAll(s.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	lis, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.SocketPath, err)
	}
	maxConns := s.cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = config.Default().MaxConnections
	}
	s.listener = netutil.LimitListener(lis, maxConns)

	s.snap.Start()

	s.logger.Info().Str("socket", s.cfg.SocketPath).Int("max_connections", maxConns).Msg("listening")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

// Stop closes the listener, causing Serve to return. In-flight connections
// are not forcibly closed; each ends when its client disconnects or issues
// shutdown.
func (s *Server) Stop() error {
	s.snap.Stop()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	connID := uuid.New().String()
	logger := log.WithConn(connID)
	ctx := types.NewClientContext()

	reader := bufio.NewScanner(conn)
	reader.Buffer(make([]byte, 0, 64*1024), 8<<20)
	writer := bufio.NewWriter(conn)

	disp := &dispatcher{
		manager: s.manager,
		loader:  s.loader,
		sched:   s.sched,
		snap:    s.snap,
		cfg:     s.cfg,
		logger:  logger,
	}

	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		status, body := disp.execute(ctx, line)
		writeReply(writer, status, body)
		if err := writer.Flush(); err != nil {
			logger.Error().Err(err).Msg("write reply")
			return
		}
		if status == types.OkShutdown {
			if err := s.Stop(); err != nil {
				logger.Warn().Err(err).Msg("stop listener on shutdown")
			}
			return
		}
	}
	if err := reader.Err(); err != nil {
		logger.Warn().Err(err).Msg("connection read error")
	}
}

// writeReply frames one reply as a status line, zero or more body lines,
// and a lone "." terminator line, so a client scanning line-by-line knows
// exactly where a reply ends without a length prefix.
func writeReply(w *bufio.Writer, status types.Status, body []string) {
	fmt.Fprintln(w, status.String())
	for _, line := range body {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, ".")
}
