package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Note is a timestamped free-text entry attached to a lead.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lead is a sales prospect. Status holds the raw string as supplied; callers
// normalize it when they need a canonical state.
type Lead struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Company          string           `json:"company"`
	Phone            string           `json:"phone"`
	Source           string           `json:"source"`
	Status           string           `json:"status"`
	AssignedTo       string           `json:"assignedTo"`
	NextFollowupDate *time.Time       `json:"nextFollowupDate,omitempty"`
	LastFollowupDate *time.Time       `json:"lastFollowupDate,omitempty"`
	DealAmount       *decimal.Decimal `json:"dealAmount,omitempty"`
	Probability      *int             `json:"probability,omitempty"`
	Notes            []Note           `json:"notes"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	LastActivity     time.Time        `json:"lastActivity"`
}

// LeadPatch carries a partial update. Nil fields are left untouched.
type LeadPatch struct {
	Name              *string
	Email             *string
	Company           *string
	Phone             *string
	Source            *string
	Status            *string
	AssignedTo        *string
	NextFollowupDate  *time.Time
	ClearNextFollowup bool
	LastFollowupDate  *time.Time
	DealAmount        *decimal.Decimal
	Probability       *int
	Notes             *[]Note
}

// Apply merges the patch into lead. Identity and timestamps are owned by the
// store and are not touched here.
func (p LeadPatch) Apply(lead *Lead) {
	if p.Name != nil {
		lead.Name = *p.Name
	}
	if p.Email != nil {
		lead.Email = *p.Email
	}
	if p.Company != nil {
		lead.Company = *p.Company
	}
	if p.Phone != nil {
		lead.Phone = *p.Phone
	}
	if p.Source != nil {
		lead.Source = *p.Source
	}
	if p.Status != nil {
		lead.Status = *p.Status
	}
	if p.AssignedTo != nil {
		lead.AssignedTo = *p.AssignedTo
	}
	if p.ClearNextFollowup {
		lead.NextFollowupDate = nil
	} else if p.NextFollowupDate != nil {
		next := *p.NextFollowupDate
		lead.NextFollowupDate = &next
	}
	if p.LastFollowupDate != nil {
		last := *p.LastFollowupDate
		lead.LastFollowupDate = &last
	}
	if p.DealAmount != nil {
		amount := *p.DealAmount
		lead.DealAmount = &amount
	}
	if p.Probability != nil {
		prob := *p.Probability
		lead.Probability = &prob
	}
	if p.Notes != nil {
		lead.Notes = append([]Note(nil), (*p.Notes)...)
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p LeadPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Company == nil && p.Phone == nil &&
		p.Source == nil && p.Status == nil && p.AssignedTo == nil &&
		p.NextFollowupDate == nil && !p.ClearNextFollowup && p.LastFollowupDate == nil &&
		p.DealAmount == nil && p.Probability == nil && p.Notes == nil
}
