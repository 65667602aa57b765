package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sync/internal/events"
	"github.com/spec-kit/helpdesk-sync/internal/observability"
)

// NotificationService logs user facing domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     observability.OrNop(logger),
	}
}

// RegisterHandlers subscribes to domain events. The returned func removes
// the subscription.
func (n *NotificationService) RegisterHandlers(ctx context.Context) (func(), error) {
	if n.dispatcher == nil {
		return func() {}, nil
	}
	return n.dispatcher.Subscribe(ctx, events.TopicDomain, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventTicketCreated:
		return n.handleTicketCreated(ctx, event)
	case events.EventProfileUpdated:
		return n.handleProfileUpdated(ctx, event)
	case events.EventFeedbackSubmitted:
		return n.handleFeedbackSubmitted(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("user_id", event.UserID), zap.String("path", event.Path), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleProfileUpdated(_ context.Context, event events.Event) error {
	n.logger.Info("ProfileUpdated", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleFeedbackSubmitted(_ context.Context, event events.Event) error {
	n.logger.Info("FeedbackSubmitted", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}
