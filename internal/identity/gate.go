package identity

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// Provider establishes who the current user is.
type Provider interface {
	ResolveAnonymous(ctx context.Context) (domain.Identity, error)
	ResolveFromToken(ctx context.Context, token string) (domain.Identity, error)
}

// Gate resolves the process identity once and tells dependents whether it
// is available. Ready flips to true exactly once, after the first
// resolution finishes, even if no identity could be obtained.
type Gate struct {
	provider Provider
	token    string
	logger   *zap.Logger

	once     sync.Once
	ready    chan struct{}
	mu       sync.RWMutex
	identity *domain.Identity
	err      error
}

// NewGate builds a gate. When initialToken is non-empty it is tried before
// falling back to an anonymous identity.
func NewGate(provider Provider, initialToken string, logger *zap.Logger) *Gate {
	return &Gate{
		provider: provider,
		token:    initialToken,
		logger:   observability.OrNop(logger),
		ready:    make(chan struct{}),
	}
}

// Resolve performs the one resolution of this gate. Later and concurrent
// calls wait for and return the first outcome.
func (g *Gate) Resolve(ctx context.Context) (domain.Identity, error) {
	g.once.Do(func() {
		identity, err := g.resolve(ctx)

		g.mu.Lock()
		if err != nil {
			g.err = err
		} else {
			g.identity = &identity
		}
		g.mu.Unlock()
		close(g.ready)
	})

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.identity == nil {
		return domain.Identity{}, g.err
	}
	return *g.identity, nil
}

func (g *Gate) resolve(ctx context.Context) (domain.Identity, error) {
	if g.provider == nil {
		return domain.Identity{}, errors.New("no identity provider configured")
	}
	if g.token != "" {
		identity, err := g.provider.ResolveFromToken(ctx, g.token)
		if err == nil {
			g.logger.Info("identity resolved", zap.String("user_id", identity.UserID), zap.String("source", string(identity.Source)))
			return identity, nil
		}
		g.logger.Warn("credential rejected, falling back to anonymous identity", zap.Error(err))
	}

	identity, err := g.provider.ResolveAnonymous(ctx)
	if err != nil {
		g.logger.Error("anonymous identity unavailable", zap.Error(err))
		return domain.Identity{}, err
	}
	g.logger.Info("identity resolved", zap.String("user_id", identity.UserID), zap.String("source", string(identity.Source)))
	return identity, nil
}

// Ready reports whether resolution has finished.
func (g *Gate) Ready() bool {
	select {
	case <-g.ready:
		return true
	default:
		return false
	}
}

// Done is closed once resolution has finished.
func (g *Gate) Done() <-chan struct{} {
	return g.ready
}

// Identity returns the resolved identity, if any.
func (g *Gate) Identity() (domain.Identity, bool) {
	if !g.Ready() {
		return domain.Identity{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.identity == nil {
		return domain.Identity{}, false
	}
	return *g.identity, true
}

// UserID returns the resolved user id, if any.
func (g *Gate) UserID() (string, bool) {
	identity, ok := g.Identity()
	if !ok {
		return "", false
	}
	return identity.UserID, true
}

// RequireUserID returns the user id or a NotReady error.
func (g *Gate) RequireUserID() (string, error) {
	if g == nil {
		return "", apperrors.NewNotReady("")
	}
	userID, ok := g.UserID()
	if !ok {
		return "", apperrors.NewNotReady("")
	}
	return userID, nil
}

// Wait blocks until resolution has finished or ctx ends.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
