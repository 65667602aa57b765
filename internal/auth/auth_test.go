package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	token, expiresAt, err := tm.GenerateToken("abc123xyz")
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc123xyz", claims.Subject)
	assert.Equal(t, "helpdesk", claims.Issuer)

	_, _, err = tm.GenerateToken("")
	assert.Error(t, err)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	token, _, err := tm.GenerateToken("u1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
	}{
		{"wrong secret", NewTokenManager("other", "helpdesk", 5), token},
		{"wrong issuer", NewTokenManager("secret", "someone-else", 5), token},
		{"garbage", tm, "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.manager.ParseToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestIdentityProvider(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	provider := NewIdentityProvider(tm)
	ctx := context.Background()

	a, err := provider.ResolveAnonymous(ctx)
	require.NoError(t, err)
	b, err := provider.ResolveAnonymous(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.UserID, "anon-"))
	assert.Len(t, a.UserID, len("anon-")+32)
	assert.NotEqual(t, a.UserID, b.UserID)
	assert.True(t, a.Anonymous())

	token, _, err := tm.GenerateToken("abc123xyz")
	require.NoError(t, err)
	identity, err := provider.ResolveFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "abc123xyz", identity.UserID)
	assert.Equal(t, domain.IdentitySourceToken, identity.Source)

	_, err = provider.ResolveFromToken(ctx, "bogus")
	assert.Error(t, err)
}

type staticIdentity struct {
	identity domain.Identity
	ok       bool
}

func (s staticIdentity) Identity() (domain.Identity, bool) {
	return s.identity, s.ok
}

func TestIdentityMiddleware(t *testing.T) {
	newApp := func(source IdentitySource) *fiber.App {
		app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(apperrors.ToDomainError(err).Code)
		}})
		app.Get("/me", NewIdentityMiddleware(source).Handle, func(c *fiber.Ctx) error {
			identity, ok := IdentityFromContext(c)
			if !ok {
				return fiber.ErrInternalServerError
			}
			return c.SendString(identity.UserID)
		})
		return app
	}

	resp, err := newApp(staticIdentity{}).Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = newApp(staticIdentity{identity: domain.Identity{UserID: "u1"}, ok: true}).
		Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
