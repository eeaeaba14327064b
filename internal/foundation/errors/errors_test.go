package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	err := SessionError("no active session").
		WithContext("requested", "pause").
		Build()

	require.Equal(t, CategorySession, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.Equal(t, RetryUserAction, err.RetryStrategy())
	require.Equal(t, "no active session", err.Message())

	v, ok := err.Context().GetString("requested")
	require.True(t, ok)
	require.Equal(t, "pause", v)
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryStorage, "record session").Build()

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "record session")
	require.Contains(t, err.Error(), "disk full")
}

func TestSentinelComparisonWithErrorsIs(t *testing.T) {
	sentinel := SessionError("not paused").Build()

	got := SessionError("not paused").WithContext("state", "active").Build()
	require.True(t, stderrors.Is(got, sentinel))

	other := SessionError("no active session").Build()
	require.False(t, stderrors.Is(other, sentinel))
}

func TestSentinelSurvivesWrapping(t *testing.T) {
	sentinel := SessionError("not paused").Build()
	wrapped := fmt.Errorf("dispatch: %w", sentinel)
	require.True(t, stderrors.Is(wrapped, sentinel))
}

func TestStorageErrorDefaultsToWarning(t *testing.T) {
	err := StorageError("flush failed").Build()
	require.Equal(t, SeverityWarning, err.Severity())
	require.True(t, err.CanRetry())
}

func TestExitCodeMapping(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	require.Equal(t, 0, adapter.ExitCodeFor(nil))
	require.Equal(t, 1, adapter.ExitCodeFor(stderrors.New("plain")))
	require.Equal(t, 2, adapter.ExitCodeFor(ValidationError("bad flag").Build()))
	require.Equal(t, 3, adapter.ExitCodeFor(ConfigError("missing file").Build()))
	require.Equal(t, 4, adapter.ExitCodeFor(SessionError("already active").Build()))
	require.Equal(t, 5, adapter.ExitCodeFor(ProtocolError("bad frame").Build()))
	require.Equal(t, 6, adapter.ExitCodeFor(DaemonError("not running").Build()))
}

func TestGetCategoryFallsBackToInternal(t *testing.T) {
	require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	require.Equal(t, CategoryNotify, GetCategory(NotifyError("no backend").Build()))
}
