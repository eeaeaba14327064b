package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func terminalSnapshot(id string, state session.State, endedAt time.Time) session.Snapshot {
	return session.Snapshot{
		SessionID:        id,
		State:            state,
		Mode:             session.ModeReview,
		Total:            25 * time.Minute,
		Elapsed:          20 * time.Minute,
		CheckInCount:     1,
		StartedAt:        endedAt.Add(-20 * time.Minute),
		LastTransitionAt: endedAt,
	}
}

func TestRecordAndReadBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordTerminal(ctx, terminalSnapshot("one", session.StateCompleted, ended)))

	records, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "one", records[0].ID)
	require.Equal(t, session.ModeReview, records[0].Mode)
	require.Equal(t, session.StateCompleted, records[0].State)
	require.EqualValues(t, 1500, records[0].TotalSeconds)
	require.EqualValues(t, 1200, records[0].ElapsedSeconds)
	require.True(t, records[0].EndedAt.Equal(ended))
}

func TestRecordRejectsNonTerminal(t *testing.T) {
	s := newTestStore(t)
	snap := terminalSnapshot("live", session.StateActive, time.Now())
	require.Error(t, s.RecordTerminal(context.Background(), snap))
}

func TestCompletedSinceFiltersAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		snap := terminalSnapshot(id, session.StateCompleted, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.RecordTerminal(ctx, snap))
	}

	records, err := s.CompletedSince(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "b", records[0].ID)
	require.Equal(t, "c", records[1].ID)
}

func TestCountCompletedExcludesStopped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.RecordTerminal(ctx, terminalSnapshot("done", session.StateCompleted, now)))
	require.NoError(t, s.RecordTerminal(ctx, terminalSnapshot("quit", session.StateStopped, now)))

	count, err := s.CountCompleted(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		snap := terminalSnapshot(id, session.StateStopped, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.RecordTerminal(ctx, snap))
	}

	records, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "new", records[0].ID)
	require.Equal(t, "mid", records[1].ID)
}
