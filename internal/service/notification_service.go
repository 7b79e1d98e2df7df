package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/notify"
	"github.com/spec-kit/leadflow/internal/repository"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	users      repository.UserRepository
	leads      repository.LeadRepository
	mailer     notify.Mailer
}

// NewNotificationService creates the service. A nil mailer disables email;
// events are still logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, users repository.UserRepository, leads repository.LeadRepository, mailer notify.Mailer) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		users:      users,
		leads:      leads,
		mailer:     mailer,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLeadCreated, n.logEvent("LeadCreated"))
	n.dispatcher.Subscribe(events.EventLeadUpdated, n.logEvent("LeadUpdated"))
	n.dispatcher.Subscribe(events.EventLeadStatusChanged, n.logEvent("LeadStatusChanged"))
	n.dispatcher.Subscribe(events.EventLeadDeleted, n.logEvent("LeadDeleted"))
	n.dispatcher.Subscribe(events.EventLeadAssigned, n.handleLeadAssigned)
}

func (n *NotificationService) logEvent(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		n.logger.Info(name, zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
		return nil
	}
}

// handleLeadAssigned emails the assignee when their display name matches
// an active directory user.
func (n *NotificationService) handleLeadAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadAssigned", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	if n.mailer == nil || n.users == nil {
		return nil
	}
	payload, ok := event.Payload.(events.LeadAssignedPayload)
	if !ok || payload.Assignee == "" {
		return nil
	}

	users, err := n.users.List(ctx)
	if err != nil {
		return err
	}
	email := ""
	for _, user := range users {
		if user.Active && strings.EqualFold(strings.TrimSpace(user.Name), strings.TrimSpace(payload.Assignee)) {
			email = user.Email
			break
		}
	}
	if email == "" {
		n.logger.Debug("assignee has no directory entry", zap.String("assignee", payload.Assignee))
		return nil
	}

	data := notify.AssignmentData{Assignee: payload.Assignee, LeadName: payload.LeadName}
	if n.leads != nil {
		if lead, err := n.leads.GetByID(ctx, event.LeadID); err == nil {
			data.Company = lead.Company
			if lead.NextFollowupDate != nil {
				data.NextFollowup = lead.NextFollowupDate.Format(time.RFC1123)
			}
		}
	}
	body, err := notify.RenderAssignment(data)
	if err != nil {
		return err
	}
	return n.mailer.Send(notify.Message{
		To:      email,
		Subject: "New lead assigned: " + payload.LeadName,
		HTML:    body,
	})
}
