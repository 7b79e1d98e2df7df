// Package followup derives the named lead views used by both the list and
// the board: all, followed, scheduled and not followed.
package followup

import (
	"strings"
	"time"

	"github.com/spec-kit/leadflow/internal/domain"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// Tab names a derived view.
type Tab string

const (
	TabAll         Tab = "all"
	TabFollowed    Tab = "followed"
	TabScheduled   Tab = "scheduled"
	TabNotFollowed Tab = "not_followed"
)

// Tabs lists the views in display order.
var Tabs = []Tab{TabAll, TabFollowed, TabScheduled, TabNotFollowed}

// ParseTab maps a query value to a Tab. Empty input selects TabAll.
func ParseTab(raw string) (Tab, error) {
	switch Tab(strings.TrimSpace(raw)) {
	case "", TabAll:
		return TabAll, nil
	case TabFollowed:
		return TabFollowed, nil
	case TabScheduled:
		return TabScheduled, nil
	case TabNotFollowed, "notFollowed":
		return TabNotFollowed, nil
	}
	return "", apperrors.NewValidationError("unknown tab", map[string]any{"tab": raw})
}

// Counts holds the size of each view.
type Counts struct {
	All         int `json:"all"`
	Followed    int `json:"followed"`
	Scheduled   int `json:"scheduled"`
	NotFollowed int `json:"notFollowed"`
}

// Views is one derivation pass over a lead collection. The views overlap;
// a lead can sit in several at once.
type Views struct {
	Now         time.Time
	All         []domain.Lead
	Followed    []domain.Lead
	Scheduled   []domain.Lead
	NotFollowed []domain.Lead
}

// Derive evaluates every predicate against the same instant.
func Derive(leads []domain.Lead, now time.Time) Views {
	v := Views{
		Now:         now,
		All:         leads,
		Followed:    []domain.Lead{},
		Scheduled:   []domain.Lead{},
		NotFollowed: []domain.Lead{},
	}
	if v.All == nil {
		v.All = []domain.Lead{}
	}
	for _, lead := range leads {
		if IsFollowed(lead) {
			v.Followed = append(v.Followed, lead)
		}
		if IsScheduled(lead, now) {
			v.Scheduled = append(v.Scheduled, lead)
		}
		if IsNotFollowed(lead, now) {
			v.NotFollowed = append(v.NotFollowed, lead)
		}
	}
	return v
}

// Counts returns the length of each view.
func (v Views) Counts() Counts {
	return Counts{
		All:         len(v.All),
		Followed:    len(v.Followed),
		Scheduled:   len(v.Scheduled),
		NotFollowed: len(v.NotFollowed),
	}
}

// Filter returns the leads for tab.
func (v Views) Filter(tab Tab) []domain.Lead {
	switch tab {
	case TabFollowed:
		return v.Followed
	case TabScheduled:
		return v.Scheduled
	case TabNotFollowed:
		return v.NotFollowed
	default:
		return v.All
	}
}

// IsFollowed: raw status Contacted or Follow-up with any follow-up date.
func IsFollowed(lead domain.Lead) bool {
	status := strings.TrimSpace(lead.Status)
	if status != string(domain.LeadStatusContacted) && status != domain.RawStatusFollowUp {
		return false
	}
	return lead.LastFollowupDate != nil || lead.NextFollowupDate != nil
}

// IsScheduled: next follow-up strictly after now.
func IsScheduled(lead domain.Lead, now time.Time) bool {
	return lead.NextFollowupDate != nil && lead.NextFollowupDate.After(now)
}

// IsNotFollowed: raw status New, an overdue next follow-up, or a Contacted
// lead with no follow-up dates at all.
func IsNotFollowed(lead domain.Lead, now time.Time) bool {
	status := strings.TrimSpace(lead.Status)
	if status == string(domain.LeadStatusNew) {
		return true
	}
	if lead.NextFollowupDate != nil && lead.NextFollowupDate.Before(now) {
		return true
	}
	return status == string(domain.LeadStatusContacted) &&
		lead.LastFollowupDate == nil && lead.NextFollowupDate == nil
}
