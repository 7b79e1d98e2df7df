package worker

import (
	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/service"
)

// StartNotificationWorker registers notification handlers. When forward is
// non-nil every lead event is also handed to it, typically an AMQP publisher.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, forward events.EventHandler) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher != nil && forward != nil {
		events.SubscribeAll(dispatcher, forward)
	}
}
