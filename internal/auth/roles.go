package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/utilityops/records-service/internal/domain"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

// RequireRole ensures the session's role is one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("Not authorized (session missing)")
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return apperrors.NewForbidden("Access denied (role mismatch)")
		}
		return c.Next()
	}
}

// AnyRole allows both operator roles.
func AnyRole() fiber.Handler {
	return RequireRole(domain.RoleDataEntry, domain.RoleDataViewing)
}
