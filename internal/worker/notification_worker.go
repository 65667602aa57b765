package worker

import (
	"context"

	"github.com/spec-kit/helpdesk-sync/internal/service"
)

// StartNotificationWorker registers notification handlers and returns the
// func that stops them.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) (func(), error) {
	if notificationService == nil {
		return func() {}, nil
	}
	return notificationService.RegisterHandlers(ctx)
}
