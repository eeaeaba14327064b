// Package metrics exposes Prometheus instrumentation for the session engine.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the focusd metric families. All methods are safe for
// concurrent use (the prometheus client handles synchronization).
type Recorder struct {
	registry *prom.Registry

	sessionsStarted  *prom.CounterVec
	sessionsFinished *prom.CounterVec
	checkIns         *prom.CounterVec
	sessionActive    prom.Gauge
	subscribers      prom.Gauge
	subscribersLost  prom.Counter
	sessionDuration  prom.Histogram
}

// NewRecorder constructs and registers the focusd metrics on reg. A nil
// registry gets a fresh one, which keeps tests isolated.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{registry: reg}

	r.sessionsStarted = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "focusd",
		Name:      "sessions_started_total",
		Help:      "Focus sessions started, by mode",
	}, []string{"mode"})
	r.sessionsFinished = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "focusd",
		Name:      "sessions_finished_total",
		Help:      "Focus sessions that reached a terminal state, by outcome",
	}, []string{"outcome"})
	r.checkIns = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "focusd",
		Name:      "check_ins_total",
		Help:      "Check-in resolutions, by result",
	}, []string{"result"})
	r.sessionActive = prom.NewGauge(prom.GaugeOpts{
		Namespace: "focusd",
		Name:      "session_active",
		Help:      "Whether a live (non-terminal) session exists",
	})
	r.subscribers = prom.NewGauge(prom.GaugeOpts{
		Namespace: "focusd",
		Name:      "subscribers",
		Help:      "Currently connected broadcast subscribers",
	})
	r.subscribersLost = prom.NewCounter(prom.CounterOpts{
		Namespace: "focusd",
		Name:      "subscribers_dropped_total",
		Help:      "Subscribers dropped after overflowing their event queue",
	})
	r.sessionDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "focusd",
		Name:      "session_duration_seconds",
		Help:      "Accumulated active time of finished sessions",
		Buckets:   []float64{300, 600, 900, 1500, 1800, 2700, 3600, 5400, 7200},
	})

	reg.MustRegister(
		r.sessionsStarted,
		r.sessionsFinished,
		r.checkIns,
		r.sessionActive,
		r.subscribers,
		r.subscribersLost,
		r.sessionDuration,
	)
	return r
}

// Registry returns the backing registry for the admin HTTP handler.
func (r *Recorder) Registry() *prom.Registry { return r.registry }

func (r *Recorder) SessionStarted(mode string) {
	r.sessionsStarted.WithLabelValues(mode).Inc()
	r.sessionActive.Set(1)
}

func (r *Recorder) SessionFinished(outcome string, active time.Duration) {
	r.sessionsFinished.WithLabelValues(outcome).Inc()
	r.sessionDuration.Observe(active.Seconds())
	r.sessionActive.Set(0)
}

func (r *Recorder) CheckInResolved(result string) {
	r.checkIns.WithLabelValues(result).Inc()
}

func (r *Recorder) SubscriberAdded()   { r.subscribers.Inc() }
func (r *Recorder) SubscriberRemoved() { r.subscribers.Dec() }

func (r *Recorder) SubscriberDropped() {
	r.subscribersLost.Inc()
	r.subscribers.Dec()
}
