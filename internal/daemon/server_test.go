package daemon

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/client"
	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	"git.home.luguber.info/inful/focusd/internal/protocol"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// startTestServer wires actor, hub and socket server on a temp socket
// and returns a connected client.
func startTestServer(t *testing.T) (*client.Client, *SessionActor) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Daemon.SocketPath = filepath.Join(t.TempDir(), "focusd.sock")
	cfg.Focus.DefaultDurationMinutes = 25
	cfg.Focus.CheckInIntervalMinutes = 25

	st := &fakeStore{}
	actor, bus, cancelActor := testActor(st, nil)
	t.Cleanup(cancelActor)

	hub := NewBroadcastHub(cfg.Daemon.SubscriberBuffer, actor.metrics)
	hubCh, _ := events.Subscribe[events.SessionChanged](bus, 64)
	hubCtx, cancelHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx, hubCh)
	t.Cleanup(func() {
		cancelHub()
		bus.Close()
	})

	server := NewServer(cfg, actor, hub, func() {})
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		_ = server.Stop(stopCtx)
	})

	return client.New(cfg.Daemon.SocketPath), actor
}

func TestServerLifecycleOverSocket(t *testing.T) {
	c, _ := startTestServer(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	res, err := c.Start(ctx, client.StartOptions{Mode: "review", DurationMinutes: 30})
	require.NoError(t, err)
	require.Equal(t, "active", res.Snapshot.State)
	require.Equal(t, "review", res.Snapshot.Mode)
	require.Equal(t, int64(30*60), res.Snapshot.TotalSeconds)

	res, err = c.Pause(ctx)
	require.NoError(t, err)
	require.Equal(t, "paused", res.Snapshot.State)

	res, err = c.Resume(ctx)
	require.NoError(t, err)
	require.Equal(t, "active", res.Snapshot.State)

	res, err = c.Stop(ctx)
	require.NoError(t, err)
	require.Equal(t, "stopped", res.Snapshot.State)
}

func TestServerAppliesConfiguredDefaults(t *testing.T) {
	c, _ := startTestServer(t)
	ctx := context.Background()

	res, err := c.Start(ctx, client.StartOptions{})
	require.NoError(t, err)
	require.Equal(t, "ai-assisted", res.Snapshot.Mode)
	require.Equal(t, int64(25*60), res.Snapshot.TotalSeconds)
	require.Equal(t, int64(25*60), res.Snapshot.CheckInIntervalSeconds)
}

func TestServerErrorMapping(t *testing.T) {
	c, _ := startTestServer(t)
	ctx := context.Background()

	_, err := c.Pause(ctx)
	require.ErrorIs(t, err, session.ErrNoActiveSession)

	_, err = c.Start(ctx, client.StartOptions{})
	require.NoError(t, err)
	_, err = c.Start(ctx, client.StartOptions{})
	require.ErrorIs(t, err, session.ErrSessionAlreadyActive)

	_, err = c.Resume(ctx)
	require.ErrorIs(t, err, session.ErrNotPaused)

	_, err = c.Respond(ctx, "continue")
	require.ErrorIs(t, err, session.ErrStaleCheckIn)
}

func TestServerSubscribeStreamsChanges(t *testing.T) {
	c, actor := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := make(chan protocol.Snapshot, 16)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- c.Watch(ctx, func(snap protocol.Snapshot) error {
			seen <- snap
			return nil
		})
	}()

	// First delivery is the snapshot baseline.
	first := <-seen
	require.Equal(t, "inactive", first.State)

	_, _, err := actor.Start(ctx, session.ModeAiAssisted, 25*time.Minute, 0)
	require.NoError(t, err)
	next := <-seen
	require.Equal(t, "active", next.State)

	_, _, err = actor.Stop(ctx)
	require.NoError(t, err)

	for {
		snap := <-seen
		if snap.State == "stopped" {
			break
		}
	}

	cancel()
	require.NoError(t, <-watchErr)
}

func TestServerTwoWatchersBothSeeSessionEnd(t *testing.T) {
	c, actor := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	watch := func() (<-chan protocol.Snapshot, <-chan error) {
		seen := make(chan protocol.Snapshot, 16)
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Watch(ctx, func(snap protocol.Snapshot) error {
				seen <- snap
				return nil
			})
		}()
		return seen, errCh
	}
	seenA, errA := watch()
	seenB, errB := watch()

	require.Equal(t, "inactive", (<-seenA).State)
	require.Equal(t, "inactive", (<-seenB).State)

	_, _, err := actor.Start(ctx, session.ModeAiAssisted, 25*time.Minute, 0)
	require.NoError(t, err)
	_, _, err = actor.Stop(ctx)
	require.NoError(t, err)

	awaitStopped := func(seen <-chan protocol.Snapshot) {
		t.Helper()
		for {
			select {
			case snap := <-seen:
				if snap.State == "stopped" {
					return
				}
			case <-ctx.Done():
				t.Fatal("watcher never observed the stopped session")
			}
		}
	}
	awaitStopped(seenA)
	awaitStopped(seenB)

	cancel()
	require.NoError(t, <-errA)
	require.NoError(t, <-errB)
}

func TestServerStopClosesIdleConnections(t *testing.T) {
	cfg := config.Defaults()
	cfg.Daemon.SocketPath = filepath.Join(t.TempDir(), "focusd.sock")

	actor, bus, cancelActor := testActor(nil, nil)
	t.Cleanup(func() {
		cancelActor()
		bus.Close()
	})
	hub := NewBroadcastHub(4, actor.metrics)
	t.Cleanup(hub.Close)

	server := NewServer(cfg, actor, hub, func() {})
	require.NoError(t, server.Start(context.Background()))

	// An idle client connects and never sends a frame. Its handler parks
	// in the frame read; Stop must not wait it out.
	conn, err := net.Dial("unix", cfg.Daemon.SocketPath)
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	begin := time.Now()
	require.NoError(t, server.Stop(stopCtx))
	require.Less(t, time.Since(begin), time.Second)
}

func TestServerSecondInstanceRefusesToStart(t *testing.T) {
	cfg := config.Defaults()
	cfg.Daemon.SocketPath = filepath.Join(t.TempDir(), "focusd.sock")

	actor, bus, cancelActor := testActor(nil, nil)
	t.Cleanup(func() {
		cancelActor()
		bus.Close()
	})
	hub := NewBroadcastHub(4, actor.metrics)
	t.Cleanup(hub.Close)

	first := NewServer(cfg, actor, hub, func() {})
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		_ = first.Stop(stopCtx)
	})

	second := NewServer(cfg, actor, hub, func() {})
	err := second.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already running")
}
