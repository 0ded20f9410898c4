package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/events"
)

// DeliverFunc makes one delivery attempt for an event.
type DeliverFunc func(ctx context.Context, event events.Event) error

// DeliveryWorker delivers queued events on one background goroutine, in order.
type DeliveryWorker struct {
	deliver DeliverFunc
	logger  *zap.Logger
	queue   chan events.Event

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDeliveryWorker creates a worker with room for size pending events.
func NewDeliveryWorker(deliver DeliverFunc, size int, logger *zap.Logger) *DeliveryWorker {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryWorker{
		deliver: deliver,
		logger:  logger,
		queue:   make(chan events.Event, size),
	}
}

// Start launches the delivery loop. Deliveries run under ctx.
func (w *DeliveryWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			if err := w.deliver(ctx, event); err != nil {
				w.logger.Debug("event delivery failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Enqueue queues an event without blocking. It reports false when the queue is
// full or the worker has stopped.
func (w *DeliveryWorker) Enqueue(event events.Event) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.queue <- event:
		return true
	default:
		return false
	}
}

// Stop refuses new events, then waits for the queued ones to be delivered.
func (w *DeliveryWorker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
