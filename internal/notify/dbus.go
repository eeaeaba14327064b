package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/session"
)

const (
	notifyDest      = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyMethod    = "org.freedesktop.Notifications.Notify"
	sigActionInvoke = "org.freedesktop.Notifications.ActionInvoked"
	sigClosed       = "org.freedesktop.Notifications.NotificationClosed"
)

// DBusNotifier talks to the org.freedesktop.Notifications service on the
// session bus.
type DBusNotifier struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	mu    sync.Mutex
	waits map[uint32]chan string // notification id -> action key ("" = closed)
	done  chan struct{}
}

// NewDBusNotifier connects to the session bus. Callers should fall back to
// Disabled when this fails.
func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "connect session bus").Build()
	}

	n := &DBusNotifier{
		conn:  conn,
		obj:   conn.Object(notifyDest, notifyPath),
		waits: make(map[uint32]chan string),
		done:  make(chan struct{}),
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(notifyDest),
		dbus.WithMatchObjectPath(notifyPath),
	); err != nil {
		_ = conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "subscribe notification signals").Build()
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	go n.pump(signals)

	return n, nil
}

// pump routes ActionInvoked/NotificationClosed signals to pending waits.
func (n *DBusNotifier) pump(signals <-chan *dbus.Signal) {
	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return
			}
			n.dispatch(sig)
		case <-n.done:
			return
		}
	}
}

func (n *DBusNotifier) dispatch(sig *dbus.Signal) {
	if len(sig.Body) == 0 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}

	var key string
	switch sig.Name {
	case sigActionInvoke:
		if len(sig.Body) > 1 {
			key, _ = sig.Body[1].(string)
		}
	case sigClosed:
		key = ""
	default:
		return
	}

	n.mu.Lock()
	ch, waiting := n.waits[id]
	if waiting {
		delete(n.waits, id)
	}
	n.mu.Unlock()

	if waiting {
		select {
		case ch <- key:
		default:
		}
	}
}

func (n *DBusNotifier) hints(notification Notification) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(notification.Urgency)),
	}
	if notification.Sound {
		hints["sound-name"] = dbus.MakeVariant("message-new-instant")
	}
	return hints
}

// Notify implements Notifier.
func (n *DBusNotifier) Notify(ctx context.Context, notification Notification) error {
	call := n.obj.CallWithContext(ctx, notifyMethod, 0,
		"focusd", uint32(0), "", notification.Title, notification.Body,
		[]string{}, n.hints(notification), int32(-1))
	if call.Err != nil {
		return ferrors.WrapError(call.Err, ferrors.CategoryNotify, "show notification").Build()
	}
	return nil
}

// Ask implements Notifier. The bounded wait is the caller's context; an
// unanswered notification stays pending until dismissal or cancellation.
func (n *DBusNotifier) Ask(ctx context.Context, notification Notification) (session.Decision, error) {
	actions := []string{
		string(session.DecisionContinue), "Still focused",
		string(session.DecisionPause), "Pause",
		string(session.DecisionStop), "Stop",
	}

	call := n.obj.CallWithContext(ctx, notifyMethod, 0,
		"focusd", uint32(0), "", notification.Title, notification.Body,
		actions, n.hints(notification), int32(0))
	if call.Err != nil {
		return "", ferrors.WrapError(call.Err, ferrors.CategoryNotify, "show check-in notification").Build()
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryNotify, "read notification id").Build()
	}

	wait := make(chan string, 1)
	n.mu.Lock()
	n.waits[id] = wait
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		delete(n.waits, id)
		n.mu.Unlock()
	}()

	select {
	case key := <-wait:
		if key == "" {
			return "", ErrNoDecision
		}
		decision, err := session.ParseDecision(key)
		if err != nil {
			slog.Debug("ignoring unknown notification action", "action", key)
			return "", ErrNoDecision
		}
		return decision, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close tears down the bus connection.
func (n *DBusNotifier) Close() error {
	close(n.done)
	return n.conn.Close()
}
