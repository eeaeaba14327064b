package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/session"
)

func TestCrossedBoundary(t *testing.T) {
	interval := 25 * time.Minute

	require.False(t, crossedBoundary(0, 24*time.Minute, interval))
	require.True(t, crossedBoundary(24*time.Minute, 25*time.Minute, interval))
	require.False(t, crossedBoundary(25*time.Minute, 26*time.Minute, interval))
	require.True(t, crossedBoundary(49*time.Minute, 50*time.Minute, interval))

	// A large delta (process suspend) still counts as one crossing.
	require.True(t, crossedBoundary(10*time.Minute, 40*time.Minute, interval))

	// Zero interval disables check-ins entirely.
	require.False(t, crossedBoundary(0, 8*time.Hour, 0))
}

func TestTimerRaisesCheckInAtBoundary(t *testing.T) {
	actor, _, cancel := testActor(nil, nil)
	defer cancel()
	ctx := context.Background()

	_, _, err := actor.Start(ctx, session.ModeAiAssisted, time.Hour, 25*time.Minute)
	require.NoError(t, err)

	timer := NewTimerActor(actor, time.Second)

	// 24 one-minute ticks: no boundary yet.
	for range 24 {
		timer.tick(ctx, time.Minute)
	}
	snap, err := actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, session.StateActive, snap.State)
	require.Equal(t, 0, snap.CheckInCount)

	// The 25th crosses the boundary exactly once.
	timer.tick(ctx, time.Minute)
	snap, err = actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, session.StateCheckInPending, snap.State)
	require.Equal(t, 1, snap.CheckInCount)

	// Elapsed is frozen while pending; further ticks change nothing.
	timer.tick(ctx, time.Minute)
	snap, err = actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 25*time.Minute, snap.Elapsed)
	require.Equal(t, 1, snap.CheckInCount)
}

func TestTimerCompletionWinsOverCheckIn(t *testing.T) {
	actor, _, cancel := testActor(nil, nil)
	defer cancel()
	ctx := context.Background()

	// Duration and interval coincide at minute 25.
	_, _, err := actor.Start(ctx, session.ModeAiAssisted, 25*time.Minute, 25*time.Minute)
	require.NoError(t, err)

	timer := NewTimerActor(actor, time.Second)
	for range 25 {
		timer.tick(ctx, time.Minute)
	}

	snap, err := actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, session.StateCompleted, snap.State)
	require.Equal(t, 0, snap.CheckInCount, "completion preempts the simultaneous check-in")
}

func TestTimerIgnoresPausedSessions(t *testing.T) {
	actor, _, cancel := testActor(nil, nil)
	defer cancel()
	ctx := context.Background()

	_, _, err := actor.Start(ctx, session.ModeReview, time.Hour, 0)
	require.NoError(t, err)
	_, err = actor.Pause(ctx)
	require.NoError(t, err)

	timer := NewTimerActor(actor, time.Second)
	for range 10 {
		timer.tick(ctx, time.Minute)
	}

	snap, err := actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, session.StatePaused, snap.State)
	require.Equal(t, time.Duration(0), snap.Elapsed)
}

func TestTimerTracksSessionChangeover(t *testing.T) {
	actor, _, cancel := testActor(nil, nil)
	defer cancel()
	ctx := context.Background()
	timer := NewTimerActor(actor, time.Second)

	_, _, err := actor.Start(ctx, session.ModeAiAssisted, 30*time.Minute, 10*time.Minute)
	require.NoError(t, err)
	for range 5 {
		timer.tick(ctx, time.Minute)
	}
	_, _, err = actor.Stop(ctx)
	require.NoError(t, err)

	// A fresh session must not inherit the previous boundary progress.
	_, _, err = actor.Start(ctx, session.ModeReview, 30*time.Minute, 10*time.Minute)
	require.NoError(t, err)
	for range 9 {
		timer.tick(ctx, time.Minute)
	}
	snap, err := actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, snap.CheckInCount)

	timer.tick(ctx, time.Minute)
	snap, err = actor.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.CheckInCount)
}
