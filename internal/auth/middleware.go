package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// IdentitySource is the part of the identity gate the middleware needs.
type IdentitySource interface {
	Identity() (domain.Identity, bool)
}

// IdentityMiddleware rejects requests with NotReady until an identity is
// available and exposes it to handlers.
type IdentityMiddleware struct {
	source IdentitySource
}

// NewIdentityMiddleware constructs middleware.
func NewIdentityMiddleware(source IdentitySource) *IdentityMiddleware {
	return &IdentityMiddleware{source: source}
}

// Handle enforces identity readiness for protected routes.
func (m *IdentityMiddleware) Handle(c *fiber.Ctx) error {
	identity, ok := m.source.Identity()
	if !ok {
		return apperrors.NewNotReady("")
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the identity set by the middleware.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}
