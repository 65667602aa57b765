package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// Store is the document store the sync layer and the services talk to.
// Every successful write publishes a change event on the collection topic,
// which wakes the live subscriptions on that collection.
type Store struct {
	repo         repository.DocumentRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
	writeTimeout time.Duration
	readTimeout  time.Duration
	now          func() time.Time
}

// Dependencies wires Store collaborators.
type Dependencies struct {
	Repository   repository.DocumentRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	Clock        func() time.Time
}

// New constructs a Store.
func New(deps Dependencies) (*Store, error) {
	if deps.Repository == nil {
		return nil, errors.New("store: repository is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("store: dispatcher is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		repo:         deps.Repository,
		dispatcher:   deps.Dispatcher,
		logger:       observability.OrNop(deps.Logger),
		metrics:      deps.Metrics,
		writeTimeout: deps.WriteTimeout,
		readTimeout:  deps.ReadTimeout,
		now:          clock,
	}, nil
}

// Now returns the store clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

// Get reads one document. A missing document is a NotFound error.
func (s *Store) Get(ctx context.Context, path string) (*repository.Document, error) {
	ctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()

	doc, err := s.repo.Get(ctx, path)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("document", map[string]any{"path": path})
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(path, err)
	}
	return doc, nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	ctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()

	n, err := s.repo.Count(ctx, collection)
	if err != nil {
		return 0, apperrors.NewStoreReadError(collection, err)
	}
	return n, nil
}

// Add stores data as a new document with a generated id and returns it.
func (s *Store) Add(ctx context.Context, collection string, data any) (*repository.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("encode document: %w", err))
	}
	doc := repository.NewDocument(collection, uuid.NewString(), raw, s.now())

	ctx, cancel := withTimeout(ctx, s.writeTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, doc); err != nil {
		s.metrics.RecordWrite("add", observability.OutcomeError)
		return nil, apperrors.NewStoreWriteError(collection, err)
	}
	s.metrics.RecordWrite("add", observability.OutcomeOK)
	s.publishChange(ctx, doc.Collection, doc.Path)
	return doc, nil
}

// CreateIfAbsent writes data at path unless a document already exists
// there. Existing documents are never overwritten.
func (s *Store) CreateIfAbsent(ctx context.Context, path string, data any) (bool, error) {
	collection, id, err := repository.SplitPath(path)
	if err != nil {
		return false, apperrors.NewValidationError("invalid document path", map[string]any{"path": path})
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return false, apperrors.NewInternalError(fmt.Errorf("encode document: %w", err))
	}
	doc := repository.NewDocument(collection, id, raw, s.now())

	ctx, cancel := withTimeout(ctx, s.writeTimeout)
	defer cancel()

	created, err := s.repo.InsertIfAbsent(ctx, doc)
	if err != nil {
		s.metrics.RecordWrite("create", observability.OutcomeError)
		return false, apperrors.NewStoreWriteError(path, err)
	}
	s.metrics.RecordWrite("create", observability.OutcomeOK)
	if created {
		s.publishChange(ctx, collection, path)
	}
	return created, nil
}

// Merge overwrites the named top-level fields of the document at path.
func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	collection, _, err := repository.SplitPath(path)
	if err != nil {
		return apperrors.NewValidationError("invalid document path", map[string]any{"path": path})
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("encode fields: %w", err))
	}

	ctx, cancel := withTimeout(ctx, s.writeTimeout)
	defer cancel()

	err = s.repo.Merge(ctx, path, raw, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordWrite("merge", observability.OutcomeError)
		return apperrors.NewNotFound("document", map[string]any{"path": path})
	}
	if err != nil {
		s.metrics.RecordWrite("merge", observability.OutcomeError)
		return apperrors.NewStoreWriteError(path, err)
	}
	s.metrics.RecordWrite("merge", observability.OutcomeOK)
	s.publishChange(ctx, collection, path)
	return nil
}

// Ping checks the backing repository.
func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publishChange notifies subscribers. The write already succeeded, so a
// failed publish is logged rather than returned.
func (s *Store) publishChange(ctx context.Context, collection, path string) {
	event := events.NewEvent(events.EventDocumentChanged, collection, s.now())
	event.Path = path
	if err := s.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish change", zap.String("path", path), zap.Error(err))
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
