package pipeline

import (
	"strings"

	"github.com/spec-kit/leadflow/internal/domain"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// ColumnID identifies a board lane.
type ColumnID string

const (
	ColumnNew        ColumnID = "new"
	ColumnContacted  ColumnID = "contacted"
	ColumnInProgress ColumnID = "in_progress"
	ColumnConverted  ColumnID = "converted"
	ColumnLost       ColumnID = "lost"
)

// Column describes one board lane.
type Column struct {
	ID     ColumnID
	Title  string
	Status domain.LeadStatus
}

// columns is in display order; positional logic on the board depends on it.
var columns = []Column{
	{ID: ColumnNew, Title: "New", Status: domain.LeadStatusNew},
	{ID: ColumnContacted, Title: "Contacted", Status: domain.LeadStatusContacted},
	{ID: ColumnInProgress, Title: "In Progress", Status: domain.LeadStatusInProgress},
	{ID: ColumnConverted, Title: "Converted", Status: domain.LeadStatusConverted},
	{ID: ColumnLost, Title: "Lost", Status: domain.LeadStatusLost},
}

var (
	columnByStatus = make(map[domain.LeadStatus]ColumnID, len(columns))
	statusByColumn = make(map[ColumnID]domain.LeadStatus, len(columns))
)

func init() {
	for _, col := range columns {
		columnByStatus[col.Status] = col.ID
		statusByColumn[col.ID] = col.Status
	}
}

// Columns returns the board lanes in display order.
func Columns() []Column {
	return append([]Column(nil), columns...)
}

// StatusToColumn returns the lane for a canonical status. Non-canonical input
// is normalized first so the function never yields an empty id.
func StatusToColumn(status domain.LeadStatus) ColumnID {
	if id, ok := columnByStatus[status]; ok {
		return id
	}
	return columnByStatus[Normalize(string(status))]
}

// ColumnToStatus returns the canonical status held by a lane.
func ColumnToStatus(id ColumnID) (domain.LeadStatus, error) {
	status, ok := statusByColumn[id]
	if !ok {
		return "", invalidColumn(string(id))
	}
	return status, nil
}

// ParseColumn validates a column id coming from a client.
func ParseColumn(raw string) (ColumnID, error) {
	id := ColumnID(strings.TrimSpace(raw))
	if _, ok := statusByColumn[id]; !ok {
		return "", invalidColumn(raw)
	}
	return id, nil
}

// ColumnForLead returns the lane a lead is displayed in.
func ColumnForLead(lead domain.Lead) ColumnID {
	return StatusToColumn(Normalize(lead.Status))
}

// IsInvalidColumn reports whether err came from an unknown column id.
func IsInvalidColumn(err error) bool {
	de := apperrors.ToDomainError(err)
	if de == nil || de.Code != apperrors.CodeNotFound {
		return false
	}
	_, ok := de.Details["column_id"]
	return ok
}

func invalidColumn(raw string) error {
	return apperrors.NewNotFound("column", map[string]any{"column_id": raw})
}
