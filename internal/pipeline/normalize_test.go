package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/leadflow/internal/domain"
)

func TestNormalizeKnownAliases(t *testing.T) {
	cases := map[string]domain.LeadStatus{
		"New":         domain.LeadStatusNew,
		"New Lead":    domain.LeadStatusNew,
		"Contacted":   domain.LeadStatusContacted,
		"In Progress": domain.LeadStatusInProgress,
		"InProgress":  domain.LeadStatusInProgress,
		"Qualified":   domain.LeadStatusInProgress,
		"Won":         domain.LeadStatusConverted,
		"Converted":   domain.LeadStatusConverted,
		"Lost":        domain.LeadStatusLost,
		"  Won  ":     domain.LeadStatusConverted,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), "raw=%q", raw)
		assert.True(t, IsKnownAlias(raw), "raw=%q", raw)
	}
}

func TestNormalizeFallsBackToNew(t *testing.T) {
	for _, raw := range []string{"", "   ", "won", "CONTACTED", "Follow-up", "Negotiation", "Archived"} {
		assert.Equal(t, domain.LeadStatusNew, Normalize(raw), "raw=%q", raw)
		assert.False(t, IsKnownAlias(raw), "raw=%q", raw)
	}
}

func TestAliasesCoverEveryCanonicalStatus(t *testing.T) {
	for _, status := range domain.CanonicalStatuses {
		aliases := Aliases(status)
		assert.NotEmpty(t, aliases, "status=%s", status)
		assert.Contains(t, aliases, string(status))
	}
	assert.Equal(t, []string{"In Progress", "InProgress", "Qualified"}, Aliases(domain.LeadStatusInProgress))
	assert.Equal(t, []string{"New", "New Lead"}, Aliases(domain.LeadStatusNew))
	assert.Equal(t, []string{"Converted", "Won"}, Aliases(domain.LeadStatusConverted))
}

func TestUnlistedLegacyStatusesLandInNewColumn(t *testing.T) {
	for _, raw := range []string{"Negotiation", domain.RawStatusFollowUp} {
		assert.Equal(t, ColumnNew, ColumnForLead(domain.Lead{Status: raw}), "raw=%q", raw)
		assert.NotContains(t, Aliases(domain.LeadStatusNew), raw)
	}
}
