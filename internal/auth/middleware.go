package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/repository"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller of one request.
type Principal struct {
	Session *domain.Session
	User    *domain.User
}

// Role returns the role recorded in the session.
func (p *Principal) Role() domain.Role {
	return p.Session.Role
}

// SessionMiddleware resolves the session cookie into a Principal.
type SessionMiddleware struct {
	cookieName string
	signer     *CookieSigner
	sessions   SessionStore
	users      repository.UserRepository
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(cookieName string, signer *CookieSigner, sessions SessionStore, users repository.UserRepository) *SessionMiddleware {
	return &SessionMiddleware{cookieName: cookieName, signer: signer, sessions: sessions, users: users}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return apperrors.NewUnauthorized("Not authorized (session missing)")
	}
	id, err := m.signer.Verify(raw)
	if err != nil {
		return apperrors.NewUnauthorized("Not authorized (invalid session)")
	}

	sess, err := m.sessions.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apperrors.NewUnauthorized("Not authorized (session missing)")
		}
		return apperrors.NewStoreError(err)
	}

	user, err := m.users.GetByID(c.UserContext(), sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("User not found")
		}
		return apperrors.NewStoreError(err)
	}

	c.Locals(principalKey, &Principal{Session: sess, User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.Session != nil && principal.User != nil
}
