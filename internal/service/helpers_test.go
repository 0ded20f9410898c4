package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/events"
	"github.com/utilityops/records-service/internal/testutil"
)

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}}
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) subscribe(d events.Dispatcher, types ...events.EventType) {
	for _, t := range types {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newUser(t *testing.T, store *testutil.Store, username, employeeID, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	u := &domain.User{
		FullName:     "User " + username,
		Position:     domain.PositionAreaEngineer,
		EmployeeID:   employeeID,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func sampleConnection(acc string) domain.Connection {
	return domain.Connection{
		AccountNumber: acc,
		OwnerName:     "Owner " + acc,
		Address:       "12 Lake Road",
		OwnerNIC:      "NIC" + acc,
		OwnerPhone:    "0771234567",
		Area:          "North",
		Purpose:       "Domestic",
	}
}
