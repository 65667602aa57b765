package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

type fakeProvider struct {
	anonymousFn func(ctx context.Context) (domain.Identity, error)
	tokenFn     func(ctx context.Context, token string) (domain.Identity, error)
}

func (f *fakeProvider) ResolveAnonymous(ctx context.Context) (domain.Identity, error) {
	return f.anonymousFn(ctx)
}

func (f *fakeProvider) ResolveFromToken(ctx context.Context, token string) (domain.Identity, error) {
	return f.tokenFn(ctx, token)
}

func anonymous(id string) func(context.Context) (domain.Identity, error) {
	return func(context.Context) (domain.Identity, error) {
		return domain.Identity{UserID: id, Source: domain.IdentitySourceAnonymous}, nil
	}
}

func TestGateResolve(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		provider   *fakeProvider
		wantUserID string
		wantSource domain.IdentitySource
		wantErr    bool
	}{
		{
			name:  "token accepted",
			token: "good",
			provider: &fakeProvider{
				tokenFn: func(_ context.Context, token string) (domain.Identity, error) {
					return domain.Identity{UserID: "user-" + token, Source: domain.IdentitySourceToken}, nil
				},
				anonymousFn: anonymous("anon-1"),
			},
			wantUserID: "user-good",
			wantSource: domain.IdentitySourceToken,
		},
		{
			name:  "token rejected falls back to anonymous",
			token: "bad",
			provider: &fakeProvider{
				tokenFn: func(context.Context, string) (domain.Identity, error) {
					return domain.Identity{}, errors.New("expired")
				},
				anonymousFn: anonymous("anon-2"),
			},
			wantUserID: "anon-2",
			wantSource: domain.IdentitySourceAnonymous,
		},
		{
			name:       "no token",
			provider:   &fakeProvider{anonymousFn: anonymous("anon-3")},
			wantUserID: "anon-3",
			wantSource: domain.IdentitySourceAnonymous,
		},
		{
			name: "anonymous unavailable",
			provider: &fakeProvider{anonymousFn: func(context.Context) (domain.Identity, error) {
				return domain.Identity{}, errors.New("offline")
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.provider, tt.token, zaptest.NewLogger(t))
			assert.False(t, gate.Ready())
			_, err := gate.RequireUserID()
			assert.True(t, apperrors.IsCode(err, apperrors.CodeNotReady))

			identity, err := gate.Resolve(context.Background())
			assert.True(t, gate.Ready())

			if tt.wantErr {
				require.Error(t, err)
				_, ok := gate.UserID()
				assert.False(t, ok)
				_, err = gate.RequireUserID()
				assert.True(t, apperrors.IsCode(err, apperrors.CodeNotReady))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, identity.UserID)
			assert.Equal(t, tt.wantSource, identity.Source)

			userID, ok := gate.UserID()
			assert.True(t, ok)
			assert.Equal(t, tt.wantUserID, userID)
		})
	}
}

func TestGateResolvesOnce(t *testing.T) {
	var calls atomic.Int32
	provider := &fakeProvider{anonymousFn: func(context.Context) (domain.Identity, error) {
		n := calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return domain.Identity{UserID: "anon", Source: domain.IdentitySourceAnonymous, ResolvedAt: time.Unix(int64(n), 0)}, nil
	}}
	gate := NewGate(provider, "", nil)

	var wg sync.WaitGroup
	results := make([]domain.Identity, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = gate.Resolve(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestGateWait(t *testing.T) {
	gate := NewGate(&fakeProvider{anonymousFn: anonymous("anon")}, "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, gate.Wait(ctx), context.DeadlineExceeded)

	go func() { _, _ = gate.Resolve(context.Background()) }()
	require.NoError(t, gate.Wait(context.Background()))
	<-gate.Done()
	assert.True(t, gate.Ready())
}
