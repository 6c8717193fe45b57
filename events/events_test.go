package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitReachesSubscribers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var received []Event
	done := make(chan struct{}, 1)

	bus.Subscribe(EventTypeMentionFound, func(ctx context.Context, e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	})

	pos := 2
	bus.Emit(context.Background(), MentionFoundEvent{
		PromptRunID: 7,
		DomainID:    1,
		DomainName:  "acme.com",
		Position:    &pos,
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	event, ok := received[0].(MentionFoundEvent)
	require.True(t, ok)
	assert.Equal(t, int64(7), event.PromptRunID)
	assert.Equal(t, "acme.com", event.DomainName)
}

func TestBus_EmitIgnoresOtherEventTypes(t *testing.T) {
	bus := NewBus()

	called := make(chan struct{}, 1)
	bus.Subscribe(EventTypeBatchCompleted, func(ctx context.Context, e Event) {
		called <- struct{}{}
	})

	bus.Emit(context.Background(), RunRecordedEvent{PromptRunID: 1})

	select {
	case <-called:
		t.Fatal("handler invoked for wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushDeliversPending(t *testing.T) {
	bus := NewBus()
	txBus := NewTransactionalBus(bus)

	received := make(chan Event, 2)
	bus.Subscribe(EventTypeRunRecorded, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus.Publish(RunRecordedEvent{PromptRunID: 1, Success: true})
	txBus.Publish(RunRecordedEvent{PromptRunID: 2, Success: false})

	// Nothing delivered before flush
	select {
	case <-received:
		t.Fatal("event delivered before Flush")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, txBus.Flush(context.Background()))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("pending event not delivered after Flush")
		}
	}
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	bus := NewBus()
	txBus := NewTransactionalBus(bus)

	received := make(chan Event, 1)
	bus.Subscribe(EventTypeRunRecorded, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus.Publish(RunRecordedEvent{PromptRunID: 1})
	txBus.Discard()
	require.NoError(t, txBus.Flush(context.Background()))

	select {
	case <-received:
		t.Fatal("discarded event was delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_HandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{}, 1)
	bus.Subscribe(EventTypeRunRecorded, func(ctx context.Context, e Event) {
		defer close(done)
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), RunRecordedEvent{PromptRunID: 1})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}
