package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/session"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{
		Type:  RequestStart,
		Start: &StartRequest{Mode: "review", DurationMinutes: 25, CheckInIntervalMinutes: 25},
	}
	require.NoError(t, WriteFrame(&buf, req))

	var got Request
	require.NoError(t, ReadFrame(&buf, &got))
	require.Equal(t, RequestStart, got.Type)
	require.Equal(t, "review", got.Start.Mode)
	require.Equal(t, 25, got.Start.DurationMinutes)
}

func TestReadFrameEOFOnCleanClose(t *testing.T) {
	var got Request
	err := ReadFrame(bytes.NewReader(nil), &got)
	require.Equal(t, io.EOF, err)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], MaxFrameSize+1)

	var got Request
	err := ReadFrame(bytes.NewReader(header[:]), &got)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryProtocol))
}

func TestReadFrameRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], 100)
	buf.Write(header[:])
	buf.WriteString(`{"type":`) // truncated

	var got Request
	err := ReadFrame(&buf, &got)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryProtocol))
}

func TestReadFrameRejectsMalformedJSON(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("not json at all")
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)

	var got Request
	err := ReadFrame(&buf, &got)
	require.Error(t, err)
	require.Equal(t, KindInvalidRequest, KindForError(err))
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{session.ErrSessionAlreadyActive, KindSessionAlreadyActive},
		{session.ErrNoActiveSession, KindNoActiveSession},
		{session.ErrNotActive, KindNoActiveSession},
		{session.ErrNotPaused, KindNotPaused},
		{session.ErrStaleCheckIn, KindStaleCheckIn},
		{ferrors.ValidationError("bad mode").Build(), KindInvalidRequest},
		{ferrors.StorageError("db closed").Build(), KindPersistenceFailure},
		{ferrors.NotifyError("no backend").Build(), KindNotificationUnavailable},
		{io.ErrUnexpectedEOF, KindInternal},
	}

	for _, tc := range cases {
		require.Equal(t, tc.kind, KindForError(tc.err), "for %v", tc.err)
	}
}

func TestErrorInfoRoundTripPreservesCategory(t *testing.T) {
	resp := ErrorResponse(session.ErrNotPaused)
	require.Equal(t, ResponseError, resp.Type)
	require.Equal(t, KindNotPaused, resp.Error.Kind)

	reconstructed := resp.Error.ErrorFor()
	require.True(t, ferrors.HasCategory(reconstructed, ferrors.CategorySession))
}

func TestSnapshotConversion(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := SnapshotFrom(session.Snapshot{
		SessionID:        "abc",
		State:            session.StateActive,
		Mode:             session.ModeVeille,
		Total:            25 * time.Minute,
		Elapsed:          5 * time.Minute,
		Remaining:        20 * time.Minute,
		CheckInCount:     1,
		StartedAt:        started,
		LastTransitionAt: started,
	})

	require.Equal(t, "active", snap.State)
	require.Equal(t, "veille", snap.Mode)
	require.EqualValues(t, 1500, snap.TotalSeconds)
	require.EqualValues(t, 300, snap.ElapsedSeconds)
	require.EqualValues(t, 1200, snap.RemainingSeconds)
}

func TestInactiveSnapshotOmitsSessionFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, OkResponse(session.InactiveSnapshot(), "")))

	var got Response
	require.NoError(t, ReadFrame(&buf, &got))
	require.Equal(t, ResponseOk, got.Type)
	require.Equal(t, "inactive", got.Snapshot.State)
	require.Empty(t, got.Snapshot.SessionID)
}
