package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

func TestParseUrgency(t *testing.T) {
	require.Equal(t, UrgencyLow, ParseUrgency("low"))
	require.Equal(t, UrgencyNormal, ParseUrgency("normal"))
	require.Equal(t, UrgencyCritical, ParseUrgency("critical"))
	require.Equal(t, UrgencyNormal, ParseUrgency("anything-else"))
}

func TestDisabledFailsFast(t *testing.T) {
	var n Notifier = Disabled{}

	err := n.Notify(context.Background(), Notification{Title: "x"})
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = n.Ask(context.Background(), Notification{Title: "x"})
	require.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, n.Close())
}

func TestUnavailableIsNonFatalCategory(t *testing.T) {
	require.True(t, ferrors.HasCategory(ErrUnavailable, ferrors.CategoryNotify))
	require.Equal(t, ferrors.SeverityWarning, ferrors.GetSeverity(ErrUnavailable))
}
