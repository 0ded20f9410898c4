package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/events"
	"github.com/utilityops/records-service/internal/worker"
)

func TestNotificationWebhook(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL, TimeoutSeconds: 2})
	n.RegisterHandlers(nil)

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:            "evt-1",
		Type:          events.EventConnectionDeleted,
		AccountNumber: "ACC-001",
		Payload:       events.ConnectionDeletedPayload{HadDocuments: true},
	})
	require.NoError(t, err)

	body := <-received
	assert.Equal(t, "evt-1", body["id"])
	assert.Equal(t, "ACC-001", body["accountNumber"])
}

func TestNotificationWebhookRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL}).RegisterHandlers(nil)

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventApprovalDecided})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestNotificationWithoutWebhook(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{}).RegisterHandlers(nil)
	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventNameChangeExamined}))
}

func TestNotificationQueuedWebhookDoesNotBlockPublish(t *testing.T) {
	release := make(chan struct{})
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body["id"].(string)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	defer close(release)

	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL, TimeoutSeconds: 5})
	delivery := worker.NewDeliveryWorker(n.Deliver, 8, zap.NewNop())
	delivery.Start(context.Background())
	n.RegisterHandlers(delivery)

	start := time.Now()
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{ID: "evt-9", Type: events.EventApprovalDecided}))
	assert.Less(t, time.Since(start), time.Second)

	release <- struct{}{}
	select {
	case id := <-received:
		assert.Equal(t, "evt-9", id)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}
	delivery.Stop()
}
