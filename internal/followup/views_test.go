package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/leadflow/internal/domain"
)

var now = time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestNewLeadWithPastFollowup(t *testing.T) {
	lead := domain.Lead{ID: "1", Status: "New", NextFollowupDate: at(-24 * time.Hour)}

	v := Derive([]domain.Lead{lead}, now)
	assert.Len(t, v.NotFollowed, 1)
	assert.Empty(t, v.Scheduled)
}

func TestNewLeadWithFutureFollowupIsInBothViews(t *testing.T) {
	lead := domain.Lead{ID: "1", Status: "New", NextFollowupDate: at(time.Hour)}

	assert.True(t, IsScheduled(lead, now))
	assert.True(t, IsNotFollowed(lead, now))
}

func TestFollowupExactlyNowIsNeitherScheduledNorOverdue(t *testing.T) {
	lead := domain.Lead{ID: "1", Status: "In Progress", NextFollowupDate: at(0)}

	assert.False(t, IsScheduled(lead, now))
	assert.False(t, IsNotFollowed(lead, now))
}

func TestFollowedPredicate(t *testing.T) {
	cases := []struct {
		name string
		lead domain.Lead
		want bool
	}{
		{"contacted with last", domain.Lead{Status: "Contacted", LastFollowupDate: at(-time.Hour)}, true},
		{"follow-up with next", domain.Lead{Status: "Follow-up", NextFollowupDate: at(time.Hour)}, true},
		{"contacted without dates", domain.Lead{Status: "Contacted"}, false},
		{"qualified with dates", domain.Lead{Status: "Qualified", LastFollowupDate: at(-time.Hour)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsFollowed(tc.lead))
		})
	}
}

func TestContactedWithoutDatesIsNotFollowed(t *testing.T) {
	assert.True(t, IsNotFollowed(domain.Lead{Status: "Contacted"}, now))
	assert.False(t, IsNotFollowed(domain.Lead{Status: "Contacted", LastFollowupDate: at(-time.Hour)}, now))
	assert.False(t, IsNotFollowed(domain.Lead{Status: "Lost"}, now))
}

func TestCountsMatchViewLengths(t *testing.T) {
	leads := []domain.Lead{
		{ID: "1", Status: "New"},
		{ID: "2", Status: "Contacted", LastFollowupDate: at(-48 * time.Hour), NextFollowupDate: at(48 * time.Hour)},
		{ID: "3", Status: "Won"},
	}
	v := Derive(leads, now)
	c := v.Counts()

	assert.Equal(t, Counts{All: 3, Followed: 1, Scheduled: 1, NotFollowed: 1}, c)
	for _, tab := range Tabs {
		assert.NotNil(t, v.Filter(tab))
	}
	assert.Equal(t, len(v.Filter(TabScheduled)), c.Scheduled)
}

func TestDeriveEmpty(t *testing.T) {
	v := Derive(nil, now)
	assert.Equal(t, Counts{}, v.Counts())
	assert.NotNil(t, v.All)
}

func TestParseTab(t *testing.T) {
	for raw, want := range map[string]Tab{"": TabAll, "all": TabAll, "followed": TabFollowed, "scheduled": TabScheduled, "not_followed": TabNotFollowed, "notFollowed": TabNotFollowed} {
		got, err := ParseTab(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTab("archived")
	assert.Error(t, err)
}
