package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/session"
)

type testEvent struct {
	Value int
}

type testEventer interface {
	EventValue() int
}

func (e testEvent) EventValue() int { return e.Value }

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[testEvent](b, 1)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), testEvent{Value: 123}))

	select {
	case got := <-ch:
		require.Equal(t, 123, got.Value)
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_InterfaceSubscriptionReceivesConcreteEvents(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[testEventer](b, 1)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), testEvent{Value: 7}))

	select {
	case got := <-ch:
		require.Equal(t, 7, got.EventValue())
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_PublishBackpressure(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsubscribe := Subscribe[testEvent](b, 0) // unbuffered; no receiver => blocks
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Publish(ctx, testEvent{Value: 1})
	require.Error(t, err)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[testEvent](b, 1)
	require.Equal(t, 1, SubscriberCount[testEvent](b))

	unsubscribe()
	require.Equal(t, 0, SubscriberCount[testEvent](b))

	_, open := <-ch
	require.False(t, open, "channel should be closed after unsubscribe")

	require.NoError(t, b.Publish(context.Background(), testEvent{Value: 1}))
}

func TestBus_CloseClosesSubscriptions(t *testing.T) {
	b := NewBus()
	ch, _ := Subscribe[testEvent](b, 1)

	b.Close()

	_, open := <-ch
	require.False(t, open)

	err := b.Publish(context.Background(), testEvent{Value: 1})
	require.Error(t, err)
}

func TestBus_PublishPreservesOrderPerSubscriber(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[testEvent](b, 8)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(context.Background(), testEvent{Value: i}))
	}
	for i := 0; i < 5; i++ {
		require.Equal(t, i, (<-ch).Value)
	}
}

func TestSessionChangedTerminal(t *testing.T) {
	evt := SessionChanged{Snapshot: session.Snapshot{State: session.StateStopped}}
	require.True(t, evt.Terminal())

	evt = SessionChanged{Snapshot: session.Snapshot{State: session.StateActive}}
	require.False(t, evt.Terminal())
}
