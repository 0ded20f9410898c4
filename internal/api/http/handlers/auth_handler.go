package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/utilityops/records-service/internal/api/dto"
	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/service"
)

// AuthHandler exposes login, logout and self-service endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	signer *auth.CookieSigner
	cfg    config.AuthConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, signer *auth.CookieSigner, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: authService, signer: signer, cfg: cfg}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    h.signer.Sign(result.Session.ID),
		Path:     "/",
		Expires:  result.Session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.LoginResponse{
		Token:      result.Token,
		Role:       result.User.Role,
		FullName:   result.User.FullName,
		EmployeeID: result.User.EmployeeID,
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if raw := c.Cookies(h.cfg.SessionCookieName); raw != "" {
		if id, err := h.signer.Verify(raw); err == nil {
			if err := h.auth.Logout(c.UserContext(), id); err != nil {
				return err
			}
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(principal.User))
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.User, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}
