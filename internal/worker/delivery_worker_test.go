package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/utilityops/records-service/internal/events"
)

func TestEnqueueDoesNotWaitForDelivery(t *testing.T) {
	release := make(chan struct{})
	var (
		mu        sync.Mutex
		delivered []string
	)
	w := NewDeliveryWorker(func(_ context.Context, event events.Event) error {
		<-release
		mu.Lock()
		delivered = append(delivered, event.ID)
		mu.Unlock()
		return nil
	}, 4, zaptest.NewLogger(t))
	w.Start(context.Background())

	start := time.Now()
	assert.True(t, w.Enqueue(events.Event{ID: "evt-1"}))
	assert.True(t, w.Enqueue(events.Event{ID: "evt-2"}))
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	w.Stop()
	assert.Equal(t, []string{"evt-1", "evt-2"}, delivered)
}

func TestEnqueueWhenFullOrStopped(t *testing.T) {
	block := make(chan struct{})
	w := NewDeliveryWorker(func(context.Context, events.Event) error {
		<-block
		return nil
	}, 1, nil)
	w.Start(context.Background())

	require.True(t, w.Enqueue(events.Event{ID: "first"}))
	// the loop picks up "first" and blocks, leaving one free slot
	require.Eventually(t, func() bool { return w.Enqueue(events.Event{ID: "second"}) }, time.Second, time.Millisecond)
	assert.False(t, w.Enqueue(events.Event{ID: "third"}))

	close(block)
	w.Stop()
	w.Stop()
	assert.False(t, w.Enqueue(events.Event{ID: "late"}))
}
