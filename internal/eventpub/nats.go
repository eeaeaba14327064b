// Package eventpub mirrors session lifecycle events onto a NATS subject
// so home-automation and dashboard consumers can react to focus state
// without speaking the control socket protocol.
//
// The mirror is strictly best-effort: publish failures degrade to log
// warnings and never feed back into the session engine.
package eventpub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/protocol"
)

// Event is the published wire form of one session change.
type Event struct {
	Snapshot protocol.Snapshot `json:"snapshot"`
	Previous string            `json:"previous_state"`
	Reason   string            `json:"reason"`
	At       time.Time         `json:"at"`
}

// Publisher forwards session changes to NATS.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// New connects to a NATS server. Reconnects are handled by the client;
// publishes while disconnected are buffered or dropped by it, which is
// acceptable for a lossy mirror.
func New(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("focusd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to connect to NATS").
			WithContext("url", url).Retryable().Build()
	}

	slog.Info("event mirror connected", slog.String("url", url), logfields.Subject(subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// Run forwards events from the bus subscription until the channel closes
// or ctx is canceled.
func (p *Publisher) Run(ctx context.Context, changes <-chan events.SessionChanged) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-changes:
			if !ok {
				return
			}
			p.publish(evt)
		}
	}
}

func (p *Publisher) publish(evt events.SessionChanged) {
	payload, err := json.Marshal(Event{
		Snapshot: protocol.SnapshotFrom(evt.Snapshot),
		Previous: evt.Previous.String(),
		Reason:   evt.Reason,
		At:       evt.At,
	})
	if err != nil {
		slog.Warn("failed to marshal session event", logfields.Error(err))
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		slog.Warn("failed to mirror session event",
			logfields.Subject(p.subject),
			logfields.Error(err))
		return
	}
	slog.Debug("session event mirrored",
		logfields.Subject(p.subject),
		logfields.SessionID(evt.Snapshot.SessionID),
		logfields.State(evt.Snapshot.State.String()))
}

// Close drains pending publishes and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
