package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/protocol"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// writeTimeout bounds a single frame write so one wedged client cannot
// pin a connection handler.
const writeTimeout = 5 * time.Second

// Server accepts local clients on a unix socket and speaks the framed
// JSON protocol. One-shot requests are dispatched to the session actor;
// a subscribe request upgrades the connection into an event stream fed
// by the broadcast hub.
type Server struct {
	socketPath string
	focus      config.FocusConfig
	actor      *SessionActor
	hub        *BroadcastHub
	shutdown   func()

	listener net.Listener
	workers  WorkerGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

func NewServer(cfg *config.Config, actor *SessionActor, hub *BroadcastHub, shutdown func()) *Server {
	return &Server{
		socketPath: cfg.SocketPath(),
		focus:      cfg.Focus,
		actor:      actor,
		hub:        hub,
		shutdown:   shutdown,
		conns:      make(map[net.Conn]struct{}),
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, conn)
}

// Start binds the socket and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to bind control socket").
			WithContext("socket", s.socketPath).Fatal().Build()
	}
	// Session control is per-user; keep other users out.
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		_ = listener.Close()
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to restrict socket permissions").
			WithContext("socket", s.socketPath).Build()
	}
	s.listener = listener

	slog.Info("control socket listening", logfields.Socket(s.socketPath))
	s.workers.Go(func() { s.acceptLoop(ctx) })
	return nil
}

// prepareSocket removes a stale socket file left by a previous run. A
// live daemon answers a ping; in that case refuse to start.
func (s *Server) prepareSocket() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create socket directory").
			WithContext("socket", s.socketPath).Build()
	}

	if _, err := os.Lstat(s.socketPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to inspect socket path").
			WithContext("socket", s.socketPath).Build()
	}

	conn, err := net.DialTimeout("unix", s.socketPath, time.Second)
	if err == nil {
		_ = conn.Close()
		return ferrors.DaemonError("another focusd instance is already running").
			WithContext("socket", s.socketPath).Fatal().Build()
	}

	slog.Debug("removing stale control socket", logfields.Socket(s.socketPath))
	if err := os.Remove(s.socketPath); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to remove stale socket").
			WithContext("socket", s.socketPath).Build()
	}
	return nil
}

// Stop closes the listener, force-closes any open client connections
// and removes the socket file. Without the force-close an idle client
// parked in a frame read would hold shutdown until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.connMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connMu.Unlock()
	err := s.workers.StopAndWait(ctx)
	if removeErr := os.Remove(s.socketPath); removeErr != nil && !os.IsNotExist(removeErr) {
		slog.Warn("failed to remove control socket", logfields.Error(removeErr))
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("accept failed", logfields.Error(err))
			continue
		}
		s.trackConn(conn)
		if !s.workers.Go(func() { s.handleConn(ctx, conn) }) {
			s.untrackConn(conn)
			_ = conn.Close()
			return
		}
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	for {
		var req protocol.Request
		if err := protocol.ReadFrame(conn, &req); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			slog.Debug("malformed request frame", logfields.Error(err))
			s.writeFrame(conn, protocol.ErrorResponse(
				ferrors.ProtocolError("malformed request frame").Build()))
			return
		}

		if req.Type == protocol.RequestSubscribe {
			s.handleSubscribe(ctx, conn)
			return
		}

		resp, closeAfter := s.dispatch(ctx, req)
		if !s.writeFrame(conn, resp) {
			return
		}
		if closeAfter {
			return
		}
	}
}

// dispatch executes a one-shot request. closeAfter signals that the
// connection should not accept further requests.
func (s *Server) dispatch(ctx context.Context, req protocol.Request) (resp protocol.Response, closeAfter bool) {
	switch req.Type {
	case protocol.RequestStart:
		return s.handleStart(ctx, req.Start), false

	case protocol.RequestPause:
		snap, err := s.actor.Pause(ctx)
		if err != nil {
			return protocol.ErrorResponse(err), false
		}
		return protocol.OkResponse(snap, ""), false

	case protocol.RequestResume:
		snap, err := s.actor.Resume(ctx)
		if err != nil {
			return protocol.ErrorResponse(err), false
		}
		return protocol.OkResponse(snap, ""), false

	case protocol.RequestStop:
		snap, warning, err := s.actor.Stop(ctx)
		if err != nil {
			return protocol.ErrorResponse(err), false
		}
		return protocol.OkResponse(snap, warning), false

	case protocol.RequestStatus:
		snap, err := s.actor.Status(ctx)
		if err != nil {
			return protocol.ErrorResponse(err), false
		}
		return protocol.OkResponse(snap, ""), false

	case protocol.RequestCheckInRespond:
		return s.handleCheckInRespond(ctx, req.CheckIn), false

	case protocol.RequestPing:
		return protocol.Response{Type: protocol.ResponsePong}, false

	case protocol.RequestShutdown:
		slog.Info("shutdown requested by client")
		s.shutdown()
		return protocol.Response{Type: protocol.ResponseOk}, true

	default:
		return protocol.ErrorResponse(ferrors.ProtocolError("unknown request type").
			WithContext("type", string(req.Type)).Build()), false
	}
}

func (s *Server) handleStart(ctx context.Context, start *protocol.StartRequest) protocol.Response {
	if start == nil {
		start = &protocol.StartRequest{}
	}

	mode := session.ParseMode(start.Mode)

	total := time.Duration(s.focus.DefaultDurationMinutes) * time.Minute
	if start.DurationMinutes > 0 {
		total = time.Duration(start.DurationMinutes) * time.Minute
	}
	interval := time.Duration(s.focus.CheckInIntervalMinutes) * time.Minute
	if start.CheckInIntervalMinutes > 0 {
		interval = time.Duration(start.CheckInIntervalMinutes) * time.Minute
	}

	snap, warning, err := s.actor.Start(ctx, mode, total, interval)
	if err != nil {
		return protocol.ErrorResponse(err)
	}
	return protocol.OkResponse(snap, warning)
}

func (s *Server) handleCheckInRespond(ctx context.Context, checkIn *protocol.CheckInRequest) protocol.Response {
	if checkIn == nil {
		return protocol.ErrorResponse(ferrors.ValidationError("check_in payload is required").Build())
	}
	decision, err := session.ParseDecision(checkIn.Decision)
	if err != nil {
		return protocol.ErrorResponse(err)
	}

	snap, warning, err := s.actor.ResolveCheckIn(ctx, decision, nil)
	if err != nil {
		return protocol.ErrorResponse(err)
	}
	return protocol.OkResponse(snap, warning)
}

// handleSubscribe upgrades the connection into an event stream: the
// current snapshot is confirmed first, then every session change is
// forwarded until the client disconnects, falls behind, or the daemon
// shuts down.
func (s *Server) handleSubscribe(ctx context.Context, conn net.Conn) {
	sub, snap, err := s.hub.Subscribe(func() session.Snapshot {
		current, statusErr := s.actor.Status(ctx)
		if statusErr != nil {
			return session.InactiveSnapshot()
		}
		return current
	})
	if err != nil {
		s.writeFrame(conn, protocol.ErrorResponse(err))
		return
	}
	defer s.hub.Unsubscribe(sub.ID())

	if !s.writeFrame(conn, protocol.OkResponse(snap, "")) {
		return
	}

	// Watch for the client hanging up so the subscription is released
	// promptly instead of on the next broadcast.
	s.workers.Go(func() {
		_, _ = io.Copy(io.Discard, conn)
		s.hub.Unsubscribe(sub.ID())
	})

	for frame := range sub.Frames() {
		if !s.writeFrame(conn, frame) {
			return
		}
	}
}

func (s *Server) writeFrame(conn net.Conn, resp protocol.Response) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := protocol.WriteFrame(conn, resp); err != nil {
		slog.Debug("frame write failed", logfields.Error(err))
		return false
	}
	return true
}
