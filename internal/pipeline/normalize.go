// Package pipeline owns the lead status vocabulary: the alias table that folds
// legacy status strings into canonical states, and the fixed set of board
// columns those states map onto.
package pipeline

import (
	"sort"
	"strings"

	"github.com/spec-kit/leadflow/internal/domain"
)

// statusAliases is the single alias table for raw status strings. Lookup is
// exact and case-sensitive after trimming.
var statusAliases = map[string]domain.LeadStatus{
	"New":         domain.LeadStatusNew,
	"New Lead":    domain.LeadStatusNew,
	"Contacted":   domain.LeadStatusContacted,
	"In Progress": domain.LeadStatusInProgress,
	"InProgress":  domain.LeadStatusInProgress,
	"Qualified":   domain.LeadStatusInProgress,
	"Won":         domain.LeadStatusConverted,
	"Converted":   domain.LeadStatusConverted,
	"Lost":        domain.LeadStatusLost,
	// "Follow-up" and "Negotiation" are deliberately absent: both land in
	// New through DefaultStatus. The follow-up views still read the raw
	// "Follow-up" string.
}

// DefaultStatus is where unrecognized or empty statuses land.
const DefaultStatus = domain.LeadStatusNew

// Normalize maps a raw status to its canonical state. Anything outside the
// alias table, including the empty string, becomes DefaultStatus.
func Normalize(raw string) domain.LeadStatus {
	if status, ok := statusAliases[strings.TrimSpace(raw)]; ok {
		return status
	}
	return DefaultStatus
}

// IsKnownAlias reports whether raw is in the alias table, i.e. whether
// Normalize resolved it without falling back to the default.
func IsKnownAlias(raw string) bool {
	_, ok := statusAliases[strings.TrimSpace(raw)]
	return ok
}

// Aliases returns the raw strings that normalize to status, sorted.
func Aliases(status domain.LeadStatus) []string {
	var out []string
	for raw, canonical := range statusAliases {
		if canonical == status {
			out = append(out, raw)
		}
	}
	sort.Strings(out)
	return out
}
