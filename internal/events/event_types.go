package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated       EventType = "lead_created"
	EventLeadUpdated       EventType = "lead_updated"
	EventLeadStatusChanged EventType = "lead_status_changed"
	EventLeadDeleted       EventType = "lead_deleted"
	EventLeadAssigned      EventType = "lead_assigned"
)

// AllTypes lists every event type, for subscribers that want all of them.
var AllTypes = []EventType{
	EventLeadCreated,
	EventLeadUpdated,
	EventLeadStatusChanged,
	EventLeadDeleted,
	EventLeadAssigned,
}

// Actor identifies who caused the event. Empty for system actions such as
// seeding or imports without a session.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    string      `json:"lead_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	Source     string `json:"source,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

// LeadUpdatedPayload lists the fields a patch touched.
type LeadUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// LeadStatusChangedPayload payload.
type LeadStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	OldColumn string `json:"old_column,omitempty"`
	NewColumn string `json:"new_column,omitempty"`
}

// LeadDeletedPayload payload.
type LeadDeletedPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	LeadName         string `json:"lead_name"`
	PreviousAssignee string `json:"previous_assignee,omitempty"`
	Assignee         string `json:"assignee"`
}
