package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/testutil"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *testutil.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := testutil.NewStore()
	sessions := auth.NewRedisSessionStore(client, time.Hour)
	return NewAuthService(testConfig(), store.Users(), sessions), store, mr
}

func TestLogin(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	newUser(t, store, "clerk", "E1", "pass123", domain.RoleDataEntry)

	res, err := svc.Login(context.Background(), "clerk", "pass123")
	require.NoError(t, err)
	assert.Equal(t, "E1", res.User.EmployeeID)
	assert.NotEmpty(t, res.Token)
	assert.True(t, mr.Exists("records:session:"+res.Session.ID))

	claims, err := svc.TokenManager().ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	newUser(t, store, "clerk", "E1", "pass123", domain.RoleDataEntry)

	for _, tc := range [][2]string{{"clerk", "nope"}, {"ghost", "pass123"}, {"", ""}} {
		_, err := svc.Login(context.Background(), tc[0], tc[1])
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))
		assert.Equal(t, "Invalid credentials", err.Error())
	}
	assert.Empty(t, mr.Keys())
}

func TestLogout(t *testing.T) {
	svc, store, mr := newAuthFixture(t)
	newUser(t, store, "clerk", "E1", "pass123", domain.RoleDataEntry)
	res, err := svc.Login(context.Background(), "clerk", "pass123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.Session.ID))
	assert.False(t, mr.Exists("records:session:"+res.Session.ID))
	assert.NoError(t, svc.Logout(context.Background(), ""))

	mr.Close()
	err = svc.Logout(context.Background(), "anything")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLogoutFailed))
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	user := newUser(t, store, "clerk", "E1", "pass123", domain.RoleDataEntry)
	ctx := context.Background()

	assert.True(t, apperrors.IsCode(svc.ChangePassword(ctx, user, "", "next"), apperrors.CodePasswordRequired))
	assert.True(t, apperrors.IsCode(svc.ChangePassword(ctx, user, "pass123", " "), apperrors.CodeValidationFailed))
	assert.True(t, apperrors.IsCode(svc.ChangePassword(ctx, user, "wrong", "next"), apperrors.CodeIncorrectPassword))

	require.NoError(t, svc.ChangePassword(ctx, user, "pass123", "next456"))
	_, err := svc.Login(ctx, "clerk", "pass123")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))
	_, err = svc.Login(ctx, "clerk", "next456")
	assert.NoError(t, err)
}
