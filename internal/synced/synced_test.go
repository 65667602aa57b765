package synced

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/projection"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	"github.com/spec-kit/helpdesk-sync/internal/store"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

const (
	ticketsPath = "tenants/t/users/abc123xyz/tickets"
	profilePath = "tenants/t/users/abc123xyz/profile/myProfile"
)

func newStore(t *testing.T, repo repository.DocumentRepository) *store.Store {
	t.Helper()
	s, err := store.New(store.Dependencies{
		Repository: repo,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return s
}

// recorder collects callback values for assertions from the test goroutine.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
	errs   []error
	notify chan struct{}
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{notify: make(chan struct{}, 16)}
}

func (r *recorder[T]) onChange(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder[T]) onError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder[T]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func (r *recorder[T]) last() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[len(r.values)-1]
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func validTicket(seq int) domain.Ticket {
	return domain.NewTicket("abc123xyz", seq, "Printer", "Out of toner", time.Now().UTC())
}

func TestCollectionDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	coll := NewCollection[domain.Ticket](s, nil, zaptest.NewLogger(t))
	rec := newRecorder[[]domain.Ticket]()

	unsubscribe, err := coll.Subscribe(ctx, ticketsPath, rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	rec.wait(t)
	assert.Empty(t, rec.last())

	doc, err := s.Add(ctx, ticketsPath, validTicket(1))
	require.NoError(t, err)

	rec.wait(t)
	got := rec.last()
	require.Len(t, got, 1)
	assert.Equal(t, doc.ID, got[0].ID)
	assert.Equal(t, "TKT-0001", got[0].TicketNo)
}

func TestCollectionDropsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	_, err := s.Add(ctx, ticketsPath, validTicket(1))
	require.NoError(t, err)
	_, err = s.Add(ctx, ticketsPath, map[string]any{"ticketNo": "TKT-0002", "subject": ""})
	require.NoError(t, err)
	_, err = s.Add(ctx, ticketsPath, json.RawMessage(`{"rate":"five"}`))
	require.NoError(t, err)

	coll := NewCollection[domain.Ticket](s, nil, zaptest.NewLogger(t))
	rec := newRecorder[[]domain.Ticket]()
	unsubscribe, err := coll.Subscribe(ctx, ticketsPath, rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	rec.wait(t)
	got := rec.last()
	require.Len(t, got, 1)
	assert.Equal(t, "TKT-0001", got[0].TicketNo)
}

func TestCollectionKeepsUnknownStatuses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	_, err := s.Add(ctx, ticketsPath, validTicket(1))
	require.NoError(t, err)
	escalated := validTicket(2)
	escalated.Status = "Escalated"
	_, err = s.Add(ctx, ticketsPath, escalated)
	require.NoError(t, err)

	coll := NewCollection[domain.Ticket](s, nil, zaptest.NewLogger(t))
	rec := newRecorder[[]domain.Ticket]()
	unsubscribe, err := coll.Subscribe(ctx, ticketsPath, rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	rec.wait(t)
	got := rec.last()
	require.Len(t, got, 2)
	assert.Equal(t, projection.Summary{Total: 2, InProgress: 1}, projection.Summarize(got))
}

func TestCollectionRejectsDuplicateSubscription(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	coll := NewCollection[domain.Ticket](s, nil, nil)

	noop := func([]domain.Ticket) {}
	unsubscribe, err := coll.Subscribe(ctx, ticketsPath, noop, nil)
	require.NoError(t, err)

	_, err = coll.Subscribe(ctx, ticketsPath, noop, nil)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	// another consumer may watch the same path
	other := NewCollection[domain.Ticket](s, nil, nil)
	otherUnsubscribe, err := other.Subscribe(ctx, ticketsPath, noop, nil)
	require.NoError(t, err)
	otherUnsubscribe()

	unsubscribe()
	unsubscribe()

	again, err := coll.Subscribe(ctx, ticketsPath, noop, nil)
	require.NoError(t, err)
	again()

	_, err = coll.Subscribe(ctx, ticketsPath, nil, nil)
	assert.Error(t, err)
}

func TestCollectionStopsAfterUnsubscribe(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	coll := NewCollection[domain.Ticket](s, nil, nil)
	rec := newRecorder[[]domain.Ticket]()

	unsubscribe, err := coll.Subscribe(ctx, ticketsPath, rec.onChange, rec.onError)
	require.NoError(t, err)
	rec.wait(t)
	unsubscribe()

	_, err = s.Add(ctx, ticketsPath, validTicket(1))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

type failingRepository struct {
	repository.DocumentRepository
	fail bool
	mu   sync.Mutex
}

func (f *failingRepository) List(ctx context.Context, collection string) ([]repository.Document, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return nil, assert.AnError
	}
	return f.DocumentRepository.List(ctx, collection)
}

func TestCollectionErrorKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepository{DocumentRepository: repository.NewMemoryDocumentRepository()}
	s := newStore(t, repo)
	_, err := s.Add(ctx, ticketsPath, validTicket(1))
	require.NoError(t, err)

	coll := NewCollection[domain.Ticket](s, nil, nil)
	rec := newRecorder[[]domain.Ticket]()
	unsubscribe, err := coll.Subscribe(ctx, ticketsPath, rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()
	rec.wait(t)

	repo.mu.Lock()
	repo.fail = true
	repo.mu.Unlock()
	_, err = s.Add(ctx, ticketsPath, validTicket(2))
	require.NoError(t, err)
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errs, 1)
	assert.True(t, apperrors.IsCode(rec.errs[0], apperrors.CodeStoreSubscription))
	require.Len(t, rec.values, 1)
	assert.Len(t, rec.values[0], 1)
}

func TestDocumentCreatesDefaultWhenAbsent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	doc := NewDocument[domain.Profile](s, nil, zaptest.NewLogger(t))
	rec := newRecorder[domain.Profile]()

	unsubscribe, err := doc.Subscribe(ctx, profilePath,
		func() domain.Profile { return domain.DefaultProfile("abc123xyz") },
		rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	rec.wait(t)
	profile := rec.last()
	assert.Equal(t, "User_abc123", profile.Username)
	assert.Equal(t, "N/A", profile.Email)
	assert.Equal(t, "User", profile.AccessLevel)
	assert.Equal(t, "Basic", profile.ProjectAccessLevel)
	assert.Empty(t, profile.Feedback)
	assert.Equal(t, 1, rec.count())
}

func TestDocumentNeverOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, repository.NewMemoryDocumentRepository())
	existing := domain.DefaultProfile("abc123xyz")
	existing.Username = "bob"
	_, err := s.CreateIfAbsent(ctx, profilePath, existing)
	require.NoError(t, err)

	doc := NewDocument[domain.Profile](s, nil, nil)
	rec := newRecorder[domain.Profile]()
	unsubscribe, err := doc.Subscribe(ctx, profilePath,
		func() domain.Profile { return domain.DefaultProfile("abc123xyz") },
		rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	rec.wait(t)
	assert.Equal(t, "bob", rec.last().Username)

	require.NoError(t, s.Merge(ctx, profilePath, map[string]any{"email": "bob@example.com"}))
	rec.wait(t)
	assert.Equal(t, "bob@example.com", rec.last().Email)
	assert.Equal(t, "bob", rec.last().Username)
}

type denyingRepository struct {
	repository.DocumentRepository
}

func (denyingRepository) InsertIfAbsent(context.Context, *repository.Document) (bool, error) {
	return false, assert.AnError
}

func TestDocumentCreateFailureReported(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, denyingRepository{repository.NewMemoryDocumentRepository()})
	doc := NewDocument[domain.Profile](s, nil, nil)
	rec := newRecorder[domain.Profile]()

	unsubscribe, err := doc.Subscribe(ctx, profilePath,
		func() domain.Profile { return domain.DefaultProfile("abc123xyz") },
		rec.onChange, rec.onError)
	require.NoError(t, err)
	defer unsubscribe()

	rec.wait(t)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errs, 1)
	assert.True(t, apperrors.IsCode(rec.errs[0], apperrors.CodeStoreWrite))
	assert.Empty(t, rec.values)
}
