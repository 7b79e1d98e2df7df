package domain

// LeadStatus enumerates the canonical pipeline states a lead can occupy.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "New"
	LeadStatusContacted  LeadStatus = "Contacted"
	LeadStatusInProgress LeadStatus = "In Progress"
	LeadStatusConverted  LeadStatus = "Converted"
	LeadStatusLost       LeadStatus = "Lost"
)

// RawStatusFollowUp is a legacy status string that the follow-up views treat
// like Contacted even though it normalizes to New on the board.
const RawStatusFollowUp = "Follow-up"

// CanonicalStatuses lists the canonical states in board order.
var CanonicalStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusInProgress,
	LeadStatusConverted,
	LeadStatusLost,
}

// IsClosed reports whether the status conventionally ends a deal. Nothing
// prevents a lead from moving out of a closed status.
func (s LeadStatus) IsClosed() bool {
	return s == LeadStatusConverted || s == LeadStatusLost
}
