package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
	"github.com/spec-kit/helpdesk-sync/internal/projection"
	"github.com/spec-kit/helpdesk-sync/internal/service"
	"github.com/spec-kit/helpdesk-sync/internal/store"
	"github.com/spec-kit/helpdesk-sync/internal/synced"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// Gate is the identity gate as seen by a session.
type Gate interface {
	Wait(ctx context.Context) error
	UserID() (string, bool)
}

// ViewStatus tells "no data yet" apart from "data failed to load". Err is
// the latest subscription fault; it clears on the next good snapshot.
type ViewStatus struct {
	Loaded bool
	Err    error
}

// Dashboard is the summary view for the signed-in user.
type Dashboard struct {
	UserID   string
	Initials string
	Summary  projection.Summary
	Status   ViewStatus
}

type ticketsState struct {
	tickets []domain.Ticket
	status  ViewStatus
}

type profileState struct {
	profile domain.Profile
	status  ViewStatus
}

// Session owns the live ticket and profile subscriptions of the signed-in
// user and serves read views from the latest snapshots.
type Session struct {
	gate     Gate
	store    *store.Store
	tickets  *service.TicketService
	profiles *service.ProfileService
	tenantID string
	logger   *zap.Logger

	ticketFeed  *synced.Collection[domain.Ticket]
	profileFeed *synced.Document[domain.Profile]

	ticketsSnap atomic.Pointer[ticketsState]
	profileSnap atomic.Pointer[profileState]

	mu      sync.Mutex
	userID  string
	unsubs  []synced.Unsubscribe
	started bool
}

// Dependencies wires Session collaborators.
type Dependencies struct {
	Gate           Gate
	Store          *store.Store
	TicketService  *service.TicketService
	ProfileService *service.ProfileService
	TenantID       string
	Logger         *zap.Logger
}

// New builds a Session. Start must be called before views have data.
func New(deps Dependencies) *Session {
	logger := observability.OrNop(deps.Logger)
	s := &Session{
		gate:     deps.Gate,
		store:    deps.Store,
		tickets:  deps.TicketService,
		profiles: deps.ProfileService,
		tenantID: deps.TenantID,
		logger:   logger,
	}
	if deps.Store != nil {
		s.ticketFeed = synced.NewCollection[domain.Ticket](deps.Store, nil, logger)
		s.profileFeed = synced.NewDocument[domain.Profile](deps.Store, nil, logger)
	}
	s.ticketsSnap.Store(&ticketsState{})
	s.profileSnap.Store(&profileState{})
	return s
}

// Start waits for the identity gate and subscribes to the user's tickets
// and profile. The profile is created with defaults if it does not exist.
func (s *Session) Start(ctx context.Context) error {
	if s.gate == nil || s.store == nil {
		return apperrors.NewNotReady("")
	}
	if err := s.gate.Wait(ctx); err != nil {
		return err
	}
	userID, ok := s.gate.UserID()
	if !ok {
		return apperrors.NewNotReady("")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("session already started")
	}

	unsubTickets, err := s.ticketFeed.Subscribe(ctx, domain.TicketsPath(s.tenantID, userID),
		s.onTickets, s.onTicketsError)
	if err != nil {
		return err
	}
	unsubProfile, err := s.profileFeed.Subscribe(ctx, domain.ProfilePath(s.tenantID, userID),
		func() domain.Profile { return domain.DefaultProfile(userID) },
		s.onProfile, s.onProfileError)
	if err != nil {
		unsubTickets()
		return err
	}

	s.userID = userID
	s.unsubs = []synced.Unsubscribe{unsubTickets, unsubProfile}
	s.started = true
	s.logger.Info("session started", zap.String("user_id", userID))
	return nil
}

// Close stops all subscriptions. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}

func (s *Session) onTickets(tickets []domain.Ticket) {
	s.ticketsSnap.Store(&ticketsState{
		tickets: projection.SortNewestFirst(tickets),
		status:  ViewStatus{Loaded: true},
	})
}

func (s *Session) onTicketsError(err error) {
	prev := s.ticketsSnap.Load()
	s.logger.Warn("ticket updates interrupted", zap.Error(err))
	s.ticketsSnap.Store(&ticketsState{
		tickets: prev.tickets,
		status:  ViewStatus{Loaded: prev.status.Loaded, Err: err},
	})
}

func (s *Session) onProfile(profile domain.Profile) {
	s.profileSnap.Store(&profileState{profile: profile, status: ViewStatus{Loaded: true}})
}

func (s *Session) onProfileError(err error) {
	prev := s.profileSnap.Load()
	s.logger.Warn("profile updates interrupted", zap.Error(err))
	s.profileSnap.Store(&profileState{
		profile: prev.profile,
		status:  ViewStatus{Loaded: prev.status.Loaded, Err: err},
	})
}

// UserID returns the signed-in user, if the session has started.
func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.started
}

// Dashboard summarizes the current ticket snapshot.
func (s *Session) Dashboard() Dashboard {
	userID, _ := s.UserID()
	state := s.ticketsSnap.Load()
	return Dashboard{
		UserID:   userID,
		Initials: domain.Initials(userID),
		Summary:  projection.Summarize(state.tickets),
		Status:   state.status,
	}
}

// Tickets projects the current ticket snapshot, newest first.
func (s *Session) Tickets(q projection.Query) (projection.Page, ViewStatus) {
	state := s.ticketsSnap.Load()
	return projection.Project(state.tickets, q), state.status
}

// Profile returns the current profile snapshot.
func (s *Session) Profile() (domain.Profile, ViewStatus) {
	state := s.profileSnap.Load()
	return state.profile, state.status
}

// CreateTicket files a ticket as the signed-in user.
func (s *Session) CreateTicket(ctx context.Context, subject, description string) (*service.TicketRef, error) {
	userID, ok := s.UserID()
	if !ok || s.tickets == nil {
		return nil, apperrors.NewNotReady("")
	}
	return s.tickets.Create(ctx, userID, subject, description)
}

// UpdateProfile edits the signed-in user's profile.
func (s *Session) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) error {
	userID, ok := s.UserID()
	if !ok || s.profiles == nil {
		return apperrors.NewNotReady("")
	}
	return s.profiles.Update(ctx, userID, update)
}

// SubmitFeedback appends feedback to the signed-in user's profile.
func (s *Session) SubmitFeedback(ctx context.Context, text string, rating int) error {
	userID, ok := s.UserID()
	if !ok || s.profiles == nil {
		return apperrors.NewNotReady("")
	}
	return s.profiles.SubmitFeedback(ctx, userID, text, rating)
}
