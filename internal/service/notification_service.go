package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/events"
)

// NotificationService forwards domain events to the log and an optional webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	client     *resty.Client
	webhookURL string
	queue      EventQueue
}

// EventQueue accepts events for delivery outside the publishing request.
type EventQueue interface {
	Enqueue(event events.Event) bool
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		client:     client,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
	}
}

// RegisterHandlers subscribes to every event type. With a non-nil queue the
// webhook is called from the queue's consumer; otherwise it is called inline.
func (n *NotificationService) RegisterHandlers(queue EventQueue) {
	if n.dispatcher == nil {
		return
	}
	n.queue = queue
	n.dispatcher.SubscribeAll(n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("account_number", event.AccountNumber),
		zap.String("actor_employee_id", event.Actor.EmployeeID),
		zap.Any("payload", event.Payload))
	if n.webhookURL == "" {
		return nil
	}
	if n.queue != nil {
		if !n.queue.Enqueue(event) {
			n.logger.Warn("webhook queue full, event dropped",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}
	return n.Deliver(ctx, event)
}

// Deliver makes a single webhook delivery attempt.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) error {
	if n.webhookURL == "" {
		return nil
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return fmt.Errorf("webhook delivery: %w", err)
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected event",
			zap.String("event_type", string(event.Type)),
			zap.Int("status_code", resp.StatusCode()))
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
