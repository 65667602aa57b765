package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// IdentityGate reports the resolved user, if any.
type IdentityGate interface {
	UserID() (string, bool)
}

// TicketStore is the part of the document store ticket creation needs.
type TicketStore interface {
	Count(ctx context.Context, collection string) (int, error)
	Add(ctx context.Context, collection string, data any) (*repository.Document, error)
	Now() time.Time
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      TicketStore
	gate       IdentityGate
	dispatcher events.Dispatcher
	tenantID   string
	logger     *zap.Logger
	locks      *keyedLocks
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	Store      TicketStore
	Gate       IdentityGate
	Dispatcher events.Dispatcher
	TenantID   string
	Logger     *zap.Logger
}

// TicketRef identifies a newly stored ticket.
type TicketRef struct {
	ID       string `json:"id"`
	TicketNo string `json:"ticketNo"`
	Path     string `json:"path"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		tenantID:   deps.TenantID,
		logger:     observability.OrNop(deps.Logger),
		locks:      newKeyedLocks(),
	}
}

// Create files a new ticket for ownerID. The ticket number is one past the
// owner's current ticket count; count and write are serialized per owner
// in this process only.
func (s *TicketService) Create(ctx context.Context, ownerID, subject, description string) (*TicketRef, error) {
	if err := s.ready(ownerID); err != nil {
		return nil, err
	}

	now := s.store.Now()
	ticket := domain.NewTicket(ownerID, 0, subject, description, now)
	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	path := domain.TicketsPath(s.tenantID, ownerID)
	release, err := s.locks.acquire(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewStoreWriteError(path, err)
	}
	defer release()

	count, err := s.store.Count(ctx, path)
	if err != nil {
		return nil, err
	}
	ticket.TicketNo = domain.FormatTicketNumber(count + 1)

	doc, err := s.store.Add(ctx, path, ticket)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket created", zap.String("user_id", ownerID), zap.String("ticket_no", ticket.TicketNo))
	s.publish(ctx, events.EventTicketCreated, ownerID, doc.Path, events.TicketCreatedPayload{
		TicketNo: ticket.TicketNo,
		Subject:  ticket.Subject,
	})
	return &TicketRef{ID: doc.ID, TicketNo: ticket.TicketNo, Path: doc.Path}, nil
}

func (s *TicketService) ready(ownerID string) error {
	return checkReady(s.store == nil, s.gate, ownerID)
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, userID, path string, payload any) {
	publishDomainEvent(ctx, s.dispatcher, s.logger, s.store.Now(), eventType, userID, path, payload)
}

// checkReady rejects calls made before an identity and a store exist, and
// writes for any user other than the signed-in one.
func checkReady(storeMissing bool, gate IdentityGate, userID string) error {
	if storeMissing || gate == nil {
		return apperrors.NewNotReady("")
	}
	signedIn, ok := gate.UserID()
	if !ok {
		return apperrors.NewNotReady("")
	}
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewNotReady("no signed-in user")
	}
	if userID != signedIn {
		return apperrors.NewForbidden("you can only change your own tickets and profile")
	}
	return nil
}

func publishDomainEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, now time.Time, eventType events.EventType, userID, path string, payload any) {
	if dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, events.TopicDomain, now)
	event.UserID = userID
	event.Path = path
	event.Payload = payload
	if err := dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("failed to publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
