package domain

import "time"

// LeadHistoryEntry records one change applied to a lead.
type LeadHistoryEntry struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"leadId"`
	ChangeType string    `json:"changeType"`
	OldValue   string    `json:"oldValue,omitempty"`
	NewValue   string    `json:"newValue,omitempty"`
	ChangedBy  string    `json:"changedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
