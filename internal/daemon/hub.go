package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/protocol"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// terminalFlushTimeout bounds how long a terminal event may block on a
// slow subscriber before the hub gives up on it.
const terminalFlushTimeout = 250 * time.Millisecond

// Subscriber is one streaming client registered with the hub. The hub
// owns the channel: it is closed when the subscriber is dropped for
// falling behind, unsubscribes, or the hub shuts down.
type Subscriber struct {
	id string
	ch chan protocol.Response
}

// ID identifies the subscriber in logs.
func (s *Subscriber) ID() string { return s.id }

// Frames is the stream of event frames to write to the client.
func (s *Subscriber) Frames() <-chan protocol.Response { return s.ch }

// BroadcastHub fans session events out to streaming clients.
//
// Each subscriber gets a bounded queue. A slow consumer never blocks the
// session engine: when its queue is full the subscriber is dropped and
// its channel closed, except that a terminal event is given a short
// blocking grace so a session's end is delivered whenever possible.
type BroadcastHub struct {
	mu      sync.Mutex
	subs    map[string]*Subscriber
	buffer  int
	metrics *metrics.Recorder
	closed  bool
}

func NewBroadcastHub(buffer int, rec *metrics.Recorder) *BroadcastHub {
	if buffer <= 0 {
		buffer = 16
	}
	return &BroadcastHub{
		subs:    make(map[string]*Subscriber),
		buffer:  buffer,
		metrics: rec,
	}
}

// Run consumes the session event stream until it is closed or ctx is
// canceled, then closes every subscriber.
func (h *BroadcastHub) Run(ctx context.Context, changes <-chan events.SessionChanged) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-changes:
			if !ok {
				return
			}
			h.broadcast(evt)
		}
	}
}

// Subscribe registers a streaming client and returns it together with a
// baseline snapshot. Registration happens first, so no event published
// after this call can be missing from the stream; events already in
// flight may duplicate or predate the snapshot, and clients treat each
// frame as the new truth.
//
// current is an actor round-trip and must not run under the hub lock:
// the actor can be blocked publishing into a full hub queue, and
// broadcasts need the lock to drain it.
func (h *BroadcastHub) Subscribe(current func() session.Snapshot) (*Subscriber, session.Snapshot, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, session.InactiveSnapshot(), errActorStopped()
	}

	sub := &Subscriber{
		id: uuid.NewString(),
		ch: make(chan protocol.Response, h.buffer),
	}
	h.subs[sub.id] = sub
	h.metrics.SubscriberAdded()
	h.mu.Unlock()

	snap := current()

	slog.Debug("subscriber attached", logfields.ClientID(sub.id))
	return sub, snap, nil
}

// Unsubscribe detaches a client, typically when its connection closes.
func (h *BroadcastHub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id, false)
}

func (h *BroadcastHub) removeLocked(id string, dropped bool) {
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.ch)
	h.metrics.SubscriberRemoved()
	if dropped {
		h.metrics.SubscriberDropped()
		slog.Warn("dropping slow subscriber", logfields.ClientID(id))
	} else {
		slog.Debug("subscriber detached", logfields.ClientID(id))
	}
}

func (h *BroadcastHub) broadcast(evt events.SessionChanged) {
	frame := protocol.EventResponse(evt.Snapshot)
	terminal := evt.Terminal()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		select {
		case sub.ch <- frame:
			continue
		default:
		}

		if terminal {
			// Last chance to deliver the session's end before giving up.
			timer := time.NewTimer(terminalFlushTimeout)
			select {
			case sub.ch <- frame:
				timer.Stop()
				continue
			case <-timer.C:
			}
		}
		h.removeLocked(id, true)
	}
}

// Close detaches all subscribers. Writers drain whatever is still queued
// on their channels before seeing the close.
func (h *BroadcastHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id := range h.subs {
		h.removeLocked(id, false)
	}
}
