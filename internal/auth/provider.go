package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
)

const anonymousPrefix = "anon-"

// IdentityProvider exchanges pre-issued credentials for identities and
// mints anonymous ones.
type IdentityProvider struct {
	tokens *TokenManager
	now    func() time.Time
}

// NewIdentityProvider builds a provider verifying credentials with tokens.
func NewIdentityProvider(tokens *TokenManager) *IdentityProvider {
	return &IdentityProvider{tokens: tokens, now: time.Now}
}

// ResolveAnonymous returns a fresh anonymous identity.
func (p *IdentityProvider) ResolveAnonymous(ctx context.Context) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	id := anonymousPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	return domain.Identity{UserID: id, Source: domain.IdentitySourceAnonymous, ResolvedAt: p.now()}, nil
}

// ResolveFromToken verifies token and returns the identity it names.
func (p *IdentityProvider) ResolveFromToken(ctx context.Context, token string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	if p.tokens == nil {
		return domain.Identity{}, fmt.Errorf("credential verification not configured")
	}
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("verify credential: %w", err)
	}
	return domain.Identity{UserID: claims.Subject, Source: domain.IdentitySourceToken, ResolvedAt: p.now()}, nil
}
