package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/followup"
	"github.com/spec-kit/leadflow/internal/pipeline"
	"github.com/spec-kit/leadflow/internal/service"
)

// CreateLeadRequest payload.
type CreateLeadRequest struct {
	Name             string           `json:"name" validate:"required,max=200"`
	Email            string           `json:"email" validate:"omitempty,email"`
	Company          string           `json:"company" validate:"max=200"`
	Phone            string           `json:"phone" validate:"max=50"`
	Source           string           `json:"source" validate:"max=100"`
	Status           string           `json:"status" validate:"max=50"`
	AssignedTo       string           `json:"assignedTo" validate:"max=120"`
	NextFollowupDate *time.Time       `json:"nextFollowupDate"`
	LastFollowupDate *time.Time       `json:"lastFollowupDate"`
	DealAmount       *decimal.Decimal `json:"dealAmount"`
	Probability      *int             `json:"probability" validate:"omitempty,min=0,max=100"`
}

// ToInput maps the request to the service input.
func (r CreateLeadRequest) ToInput() service.LeadCreateInput {
	return service.LeadCreateInput{
		Name:             r.Name,
		Email:            r.Email,
		Company:          r.Company,
		Phone:            r.Phone,
		Source:           r.Source,
		Status:           r.Status,
		AssignedTo:       r.AssignedTo,
		NextFollowupDate: r.NextFollowupDate,
		LastFollowupDate: r.LastFollowupDate,
		DealAmount:       r.DealAmount,
		Probability:      r.Probability,
	}
}

// UpdateLeadRequest is a partial update; absent fields are preserved.
type UpdateLeadRequest struct {
	Name              *string          `json:"name" validate:"omitempty,max=200"`
	Email             *string          `json:"email" validate:"omitempty,email"`
	Company           *string          `json:"company" validate:"omitempty,max=200"`
	Phone             *string          `json:"phone" validate:"omitempty,max=50"`
	Source            *string          `json:"source" validate:"omitempty,max=100"`
	Status            *string          `json:"status" validate:"omitempty,max=50"`
	AssignedTo        *string          `json:"assignedTo" validate:"omitempty,max=120"`
	NextFollowupDate  *time.Time       `json:"nextFollowupDate"`
	ClearNextFollowup bool             `json:"clearNextFollowup"`
	LastFollowupDate  *time.Time       `json:"lastFollowupDate"`
	DealAmount        *decimal.Decimal `json:"dealAmount"`
	Probability       *int             `json:"probability" validate:"omitempty,min=0,max=100"`
}

// ToPatch maps the request to a domain patch.
func (r UpdateLeadRequest) ToPatch() domain.LeadPatch {
	return domain.LeadPatch{
		Name:              r.Name,
		Email:             r.Email,
		Company:           r.Company,
		Phone:             r.Phone,
		Source:            r.Source,
		Status:            r.Status,
		AssignedTo:        r.AssignedTo,
		NextFollowupDate:  r.NextFollowupDate,
		ClearNextFollowup: r.ClearNextFollowup,
		LastFollowupDate:  r.LastFollowupDate,
		DealAmount:        r.DealAmount,
		Probability:       r.Probability,
	}
}

// LeadListQuery captures list filters.
type LeadListQuery struct {
	Tab    string `query:"tab"`
	Q      string `query:"q" validate:"max=200"`
	Status string `query:"status"`
}

// BoardQuery selects the tab the board shows.
type BoardQuery struct {
	Tab string `query:"tab"`
}

// NoteRequest payload.
type NoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// ScheduleFollowupRequest payload.
type ScheduleFollowupRequest struct {
	NextFollowupDate time.Time `json:"nextFollowupDate" validate:"required"`
}

// CompleteFollowupRequest payload. A missing completedAt means now.
type CompleteFollowupRequest struct {
	CompletedAt *time.Time `json:"completedAt"`
}

// AssignLeadRequest picks an assignee from the directory. An empty userId
// unassigns the lead.
type AssignLeadRequest struct {
	UserID string `json:"userId"`
}

// MoveLeadRequest is a board drop. A null destination is a cancelled drop.
type MoveLeadRequest struct {
	LeadID       string  `json:"leadId" validate:"required"`
	SourceColumn string  `json:"sourceColumn" validate:"required"`
	DestColumn   *string `json:"destinationColumn"`
}

// LeadResponse is the lead as returned to clients, with derived fields.
type LeadResponse struct {
	domain.Lead
	CanonicalStatus domain.LeadStatus `json:"canonicalStatus"`
	Column          pipeline.ColumnID `json:"column"`
}

// NewLeadResponse maps a domain lead.
func NewLeadResponse(l domain.Lead) LeadResponse {
	if l.Notes == nil {
		l.Notes = []domain.Note{}
	}
	status := pipeline.Normalize(l.Status)
	return LeadResponse{Lead: l, CanonicalStatus: status, Column: pipeline.StatusToColumn(status)}
}

// NewLeadResponses maps a slice.
func NewLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, NewLeadResponse(l))
	}
	return out
}

// MoveLeadResponse reports the outcome of a board drop.
type MoveLeadResponse struct {
	Applied bool          `json:"applied"`
	Lead    *LeadResponse `json:"lead,omitempty"`
}

// BoardColumnResponse is one lane.
type BoardColumnResponse struct {
	ID     pipeline.ColumnID `json:"id"`
	Title  string            `json:"title"`
	Status domain.LeadStatus `json:"status"`
	Count  int               `json:"count"`
	Value  decimal.Decimal   `json:"value"`
	Leads  []LeadResponse    `json:"leads"`
}

// BoardResponse is the kanban view.
type BoardResponse struct {
	Tab     followup.Tab          `json:"tab"`
	Columns []BoardColumnResponse `json:"columns"`
	Counts  followup.Counts       `json:"counts"`
}

// NewBoardResponse maps a service board.
func NewBoardResponse(b *service.Board) BoardResponse {
	resp := BoardResponse{Tab: b.Tab, Counts: b.Counts, Columns: make([]BoardColumnResponse, 0, len(b.Columns))}
	for _, c := range b.Columns {
		resp.Columns = append(resp.Columns, BoardColumnResponse{
			ID:     c.ID,
			Title:  c.Title,
			Status: c.Status,
			Count:  len(c.Leads),
			Value:  c.Value,
			Leads:  NewLeadResponses(c.Leads),
		})
	}
	return resp
}

// DashboardResponse is the reports payload.
type DashboardResponse struct {
	Total          int                       `json:"total"`
	ByStatus       map[domain.LeadStatus]int `json:"byStatus"`
	BySource       map[string]int            `json:"bySource"`
	ByAssignee     map[string]int            `json:"byAssignee"`
	ConversionRate decimal.Decimal           `json:"conversionRate"`
	PipelineValue  decimal.Decimal           `json:"pipelineValue"`
	WonValue       decimal.Decimal           `json:"wonValue"`
	Counts         followup.Counts           `json:"counts"`
	TopAssignees   []AssigneeStatResponse    `json:"topAssignees"`
}

// AssigneeStatResponse is one leaderboard row.
type AssigneeStatResponse struct {
	Name      string `json:"name"`
	Leads     int    `json:"leads"`
	Converted int    `json:"converted"`
}

// NewDashboardResponse maps a report.
func NewDashboardResponse(r *service.Report) DashboardResponse {
	resp := DashboardResponse{
		Total:          r.Total,
		ByStatus:       r.ByStatus,
		BySource:       r.BySource,
		ByAssignee:     r.ByAssignee,
		ConversionRate: r.ConversionRate,
		PipelineValue:  r.PipelineValue,
		WonValue:       r.WonValue,
		Counts:         r.Counts,
		TopAssignees:   make([]AssigneeStatResponse, 0, len(r.TopAssignees)),
	}
	for _, s := range r.TopAssignees {
		resp.TopAssignees = append(resp.TopAssignees, AssigneeStatResponse{Name: s.Name, Leads: s.Leads, Converted: s.Converted})
	}
	return resp
}
