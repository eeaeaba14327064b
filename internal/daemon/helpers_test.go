package daemon

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/session"
	"git.home.luguber.info/inful/focusd/internal/store"
)

// fakeStore records terminal snapshots in memory. It can be told to
// fail, or to hold every write until barrier is closed.
type fakeStore struct {
	mu       sync.Mutex
	recorded []session.Snapshot
	fail     bool
	barrier  chan struct{}
}

func (f *fakeStore) RecordTerminal(ctx context.Context, snap session.Snapshot) error {
	if f.barrier != nil {
		select {
		case <-f.barrier:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ferrors.StorageError("disk full").Build()
	}
	f.recorded = append(f.recorded, snap)
	return nil
}

func (f *fakeStore) CompletedSince(context.Context, time.Time) ([]store.Record, error) {
	return nil, nil
}

func (f *fakeStore) Recent(context.Context, int) ([]store.Record, error) {
	return nil, nil
}

func (f *fakeStore) CountCompleted(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.recorded {
		if s.State == session.StateCompleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) terminalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recorded)
}

// fakeNotifier answers Ask with a scripted decision, or blocks until ctx
// is done when no decision is scripted.
type fakeNotifier struct {
	mu        sync.Mutex
	decisions chan session.Decision
	notified  []notify.Notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{decisions: make(chan session.Decision, 4)}
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, n)
	return nil
}

func (f *fakeNotifier) Ask(ctx context.Context, _ notify.Notification) (session.Decision, error) {
	select {
	case d := <-f.decisions:
		return d, nil
	case <-ctx.Done():
		return "", notify.ErrNoDecision
	}
}

func (f *fakeNotifier) Close() error { return nil }

// testActor wires a SessionActor on in-memory collaborators and starts
// its loop. The returned cancel stops the loop.
func testActor(st store.Store, notifier notify.Notifier) (*SessionActor, *events.Bus, context.CancelFunc) {
	if st == nil {
		st = &fakeStore{}
	}
	if notifier == nil {
		notifier = newFakeNotifier()
	}
	bus := events.NewBus()
	actor := NewSessionActor(session.NewMachine(), bus, st, notifier, metrics.NewRecorder(nil), notify.UrgencyNormal, false)

	ctx, cancel := context.WithCancel(context.Background())
	go actor.Run(ctx)
	return actor, bus, cancel
}

// drainUntil reads events from ch until match returns true or the
// timeout expires.
func drainUntil(ch <-chan events.SessionChanged, match func(events.SessionChanged) bool, timeout time.Duration) (events.SessionChanged, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return events.SessionChanged{}, false
			}
			if match(evt) {
				return evt, true
			}
		case <-deadline:
			return events.SessionChanged{}, false
		}
	}
}
