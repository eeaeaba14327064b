package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/protocol"
)

// AdminServer exposes the optional loopback HTTP surface: Prometheus
// metrics, a health probe, and a read-only status endpoint for
// dashboards that prefer HTTP over the control socket.
type AdminServer struct {
	addr   string
	daemon *Daemon
	server *http.Server
}

func NewAdminServer(addr string, d *Daemon, rec *metrics.Recorder) *AdminServer {
	mux := http.NewServeMux()

	s := &AdminServer{addr: addr, daemon: d}
	mux.Handle("/metrics", promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *AdminServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to bind admin address").
			WithContext("addr", s.addr).Build()
	}

	slog.Info("admin endpoint listening", slog.String("addr", s.addr))
	go func() {
		if serveErr := s.server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("admin server failed", logfields.Error(serveErr))
		}
	}()
	return nil
}

func (s *AdminServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         string(s.daemon.GetStatus()),
		"uptime_seconds": int64(time.Since(s.daemon.GetStartTime()).Seconds()),
	})
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.daemon.actor.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, protocol.SnapshotFrom(snap))
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("failed to encode admin response", logfields.Error(err))
	}
}
