package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/repository"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

// AuthService coordinates login, logout and password changes.
type AuthService struct {
	users      repository.UserRepository
	sessions   auth.SessionStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// LoginResult carries both authentication artifacts issued on login.
type LoginResult struct {
	User      *domain.User
	Session   *domain.Session
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, sessions auth.SessionStore) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login verifies credentials, opens a server-side session and issues a bearer token.
// An unknown username and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewInvalidCredentials()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewStoreError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if auth.IsMismatch(err) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, apperrors.NewInternalError(err)
	}

	sess, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		_ = s.sessions.Destroy(ctx, sess.ID)
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{User: user, Session: sess, Token: token, ExpiresAt: exp}, nil
}

// Logout destroys the session. A missing session id is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return apperrors.NewLogoutFailed(err)
	}
	return nil
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if user == nil {
		return apperrors.NewUnauthorized("Not authorized")
	}
	if current == "" {
		return apperrors.NewPasswordRequired()
	}
	if strings.TrimSpace(next) == "" {
		return apperrors.NewValidationError("newPassword is required", nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		if auth.IsMismatch(err) {
			return apperrors.NewIncorrectPassword()
		}
		return apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	updated := *user
	updated.PasswordHash = hash
	if err := s.users.Update(ctx, &updated); err != nil {
		return storeError(err, "User", map[string]any{"id": user.ID})
	}
	user.PasswordHash = hash
	return nil
}

// TokenManager exposes the bearer token issuer.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
