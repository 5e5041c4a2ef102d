package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briculinos/voyana/internal/types"
)

func TestBusDeliversToMatchingSubscriber(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch, cancel := bus.Subscribe(context.Background(), Filter{RequestID: "req-1"}, 4)
	defer cancel()

	require.NoError(t, bus.Publish(NewStageCompleted("req-1", types.StageIntent, "Understanding your trip")))
	require.NoError(t, bus.Publish(NewStageCompleted("req-2", types.StageIntent, "other run")))

	select {
	case e := <-ch:
		assert.Equal(t, "req-1", e.RequestID)
		assert.Equal(t, types.StageIntent, e.Stage)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}

	select {
	case e := <-ch:
		t.Fatalf("unexpected event for %s", e.RequestID)
	default:
	}
}

func TestBusFilterByType(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch, cancel := bus.Subscribe(context.Background(), Filter{Types: []Type{TypeFailed}}, 4)
	defer cancel()

	require.NoError(t, bus.Publish(NewStageCompleted("req-1", types.StageSupply, "Searching")))
	require.NoError(t, bus.Publish(NewFailed("req-1",
		types.NewError(types.INSUFFICIENT_SUPPLY, types.StageSupply, "nothing found"))))

	e := <-ch
	assert.Equal(t, TypeFailed, e.Type)
	require.NotNil(t, e.Failure)
	assert.Equal(t, types.INSUFFICIENT_SUPPLY, e.Failure.Code)
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch, cancel := bus.Subscribe(context.Background(), Filter{}, 1)
	defer cancel()

	// Buffer of one: second publish must be dropped, not block.
	done := make(chan struct{})
	go func() {
		bus.Publish(NewStageCompleted("req-1", types.StageIntent, "one"))
		bus.Publish(NewStageCompleted("req-1", types.StageSupply, "two"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	e := <-ch
	assert.Equal(t, types.StageIntent, e.Stage)
	select {
	case e := <-ch:
		t.Fatalf("expected drop, got %v", e.Stage)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch, cancel := bus.Subscribe(context.Background(), Filter{}, 1)
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	require.NoError(t, bus.Publish(NewStageCompleted("req-1", types.StageIntent, "after unsubscribe")))
}

func TestBusCloseStopsPublishing(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(context.Background(), Filter{}, 1)
	defer cancel()

	require.NoError(t, bus.Close())
	assert.Error(t, bus.Publish(NewStageCompleted("req-1", types.StageIntent, "too late")))

	_, open := <-ch
	assert.False(t, open)
}

func TestBusUnsubscribeAfterCloseIsSafe(t *testing.T) {
	bus := NewBus(nil)
	_, cancel := bus.Subscribe(context.Background(), Filter{}, 1)

	require.NoError(t, bus.Close())
	assert.NotPanics(t, func() {
		cancel()
		cancel()
	})
}

func TestNewFailedPreservesStructuredError(t *testing.T) {
	err := types.NewRetryableError(types.PROVIDER_RATE_LIMITED, types.StageSupply, "slow down")
	e := NewFailed("req-9", err)

	assert.True(t, e.Terminal())
	require.NotNil(t, e.Failure)
	assert.Equal(t, types.PROVIDER_RATE_LIMITED, e.Failure.Code)
	assert.Equal(t, types.StageSupply, e.Failure.Stage)
	assert.True(t, e.Failure.Retryable)
}
