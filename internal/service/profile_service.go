package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

const feedbackPreviewLength = 40

// ProfileStore is the part of the document store profile writes need.
type ProfileStore interface {
	Get(ctx context.Context, path string) (*repository.Document, error)
	Merge(ctx context.Context, path string, fields map[string]any) error
	Now() time.Time
}

// ProfileService handles profile edits and feedback.
type ProfileService struct {
	store      ProfileStore
	gate       IdentityGate
	dispatcher events.Dispatcher
	tenantID   string
	logger     *zap.Logger
	locks      *keyedLocks
}

// ProfileDependencies bundles collaborators for profile service.
type ProfileDependencies struct {
	Store      ProfileStore
	Gate       IdentityGate
	Dispatcher events.Dispatcher
	TenantID   string
	Logger     *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	return &ProfileService{
		store:      deps.Store,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		tenantID:   deps.TenantID,
		logger:     observability.OrNop(deps.Logger),
		locks:      newKeyedLocks(),
	}
}

// Update overwrites the editable profile fields. Department and feedback
// are left as stored.
func (s *ProfileService) Update(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	if err := checkReady(s.store == nil, s.gate, userID); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}

	path := domain.ProfilePath(s.tenantID, userID)
	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return apperrors.NewStoreWriteError(path, err)
	}
	defer release()

	if err := s.store.Merge(ctx, path, update.Fields()); err != nil {
		return err
	}

	s.logger.Info("profile updated", zap.String("user_id", userID))
	publishDomainEvent(ctx, s.dispatcher, s.logger, s.store.Now(), events.EventProfileUpdated, userID, path,
		events.ProfileUpdatedPayload{Username: strings.TrimSpace(update.Username)})
	return nil
}

// SubmitFeedback appends a feedback entry to the profile. The profile is
// read and the whole feedback list written back, so two sessions writing
// at once can lose an entry; within this process writes are serialized.
func (s *ProfileService) SubmitFeedback(ctx context.Context, userID, text string, rating int) error {
	if err := checkReady(s.store == nil, s.gate, userID); err != nil {
		return err
	}
	entry := domain.FeedbackEntry{
		Rating: rating,
		Text:   strings.TrimSpace(text),
		Date:   domain.FormatDisplayDate(s.store.Now()),
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	path := domain.ProfilePath(s.tenantID, userID)
	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return apperrors.NewStoreWriteError(path, err)
	}
	defer release()

	doc, err := s.store.Get(ctx, path)
	if err != nil {
		return err
	}
	var profile domain.Profile
	if err := json.Unmarshal(doc.Data, &profile); err != nil {
		return apperrors.NewStoreReadError(path, err)
	}

	feedback := append(append([]domain.FeedbackEntry{}, profile.Feedback...), entry)
	if err := s.store.Merge(ctx, path, map[string]any{"feedback": feedback}); err != nil {
		return err
	}

	s.logger.Info("feedback submitted", zap.String("user_id", userID), zap.Int("rating", rating))
	publishDomainEvent(ctx, s.dispatcher, s.logger, s.store.Now(), events.EventFeedbackSubmitted, userID, path,
		events.FeedbackSubmittedPayload{Rating: rating, Preview: preview(entry.Text)})
	return nil
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= feedbackPreviewLength {
		return text
	}
	return string(runes[:feedbackPreviewLength]) + "..."
}
