package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/testutil"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

func newSessionStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, time.Hour), mr
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))

	err = ComparePassword(hash, "wrong")
	require.Error(t, err)
	assert.True(t, IsMismatch(err))
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	user := &domain.User{ID: "u1", Role: domain.RoleDataEntry, EmployeeID: "E1", FullName: "Ann"}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleDataEntry, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestRedisSessionStore(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, &domain.User{ID: "u1", Role: domain.RoleDataViewing, EmployeeID: "E9", FullName: "Ben"})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+sess.ID))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "E9", got.EmployeeID)
	assert.Equal(t, domain.RoleDataViewing, got.Role)

	require.NoError(t, store.Destroy(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, store.Destroy(ctx, sess.ID))
}

func TestSessionExpires(t *testing.T) {
	store, mr := newSessionStore(t)
	sess, err := store.Create(context.Background(), &domain.User{ID: "u1"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCookieSigner(t *testing.T) {
	s := NewCookieSigner("secret")
	signed := s.Sign("abc-123")

	id, err := s.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)

	_, err = s.Verify("abc-123.forged")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = NewCookieSigner("other").Verify(signed)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Verify("nodot")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionMiddlewareAndRoles(t *testing.T) {
	sessions, _ := newSessionStore(t)
	store := testutil.NewStore()
	signer := NewCookieSigner("secret")
	ctx := context.Background()

	viewer := &domain.User{FullName: "Viewer", Username: "viewer", Role: domain.RoleDataViewing, EmployeeID: "V1"}
	require.NoError(t, store.Users().Create(ctx, viewer))
	sess, err := sessions.Create(ctx, viewer)
	require.NoError(t, err)

	mw := NewSessionMiddleware("sid", signer, sessions, store.Users())
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Code})
	}})
	app.Get("/entry", mw.Handle, RequireRole(domain.RoleDataEntry), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/any", mw.Handle, AnyRole(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.User.EmployeeID)
	})

	cases := []struct {
		name   string
		path   string
		cookie string
		status int
	}{
		{"no cookie", "/any", "", fiber.StatusUnauthorized},
		{"forged cookie", "/any", sess.ID + ".bad", fiber.StatusUnauthorized},
		{"unknown session", "/any", signer.Sign("missing"), fiber.StatusUnauthorized},
		{"viewer on any", "/any", signer.Sign(sess.ID), fiber.StatusOK},
		{"viewer on entry", "/entry", signer.Sign(sess.ID), fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tc.path, nil)
			if tc.cookie != "" {
				req.Header.Set("Cookie", "sid="+tc.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
