package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventApprovalDecided, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventApprovalDecided, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventConnectionDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventApprovalDecided})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherNoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventNameChangeCreated}))
}

func TestDispatcherSubscribeAllAndPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.SubscribeAll(func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	d.Subscribe(EventConnectionDeleted, func(context.Context, Event) error {
		panic("handler bug")
	})

	for _, typ := range AllEventTypes {
		err := d.Publish(context.Background(), Event{Type: typ})
		if typ == EventConnectionDeleted {
			require.Error(t, err)
			assert.Contains(t, err.Error(), "handler bug")
			continue
		}
		assert.NoError(t, err)
	}
	assert.Equal(t, AllEventTypes, seen)
}
