package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/followup"
	"github.com/spec-kit/leadflow/internal/pipeline"
)

// BoardColumn is one lane of the board with its leads.
type BoardColumn struct {
	ID     pipeline.ColumnID
	Title  string
	Status domain.LeadStatus
	Leads  []domain.Lead
	Value  decimal.Decimal
}

// Board is the kanban projection of one follow-up tab.
type Board struct {
	Tab     followup.Tab
	Columns []BoardColumn
	Counts  followup.Counts
}

// Board groups the leads of tab into the five lanes, in lane order. Leads
// keep their collection order inside a lane.
func (s *LeadService) Board(ctx context.Context, tab followup.Tab) (*Board, error) {
	views, err := s.Views(ctx)
	if err != nil {
		return nil, err
	}

	cols := pipeline.Columns()
	board := &Board{Tab: tab, Columns: make([]BoardColumn, len(cols)), Counts: views.Counts()}
	index := make(map[pipeline.ColumnID]int, len(cols))
	for i, col := range cols {
		board.Columns[i] = BoardColumn{
			ID:     col.ID,
			Title:  col.Title,
			Status: col.Status,
			Leads:  []domain.Lead{},
			Value:  decimal.Zero,
		}
		index[col.ID] = i
	}

	for _, lead := range views.Filter(tab) {
		lane := &board.Columns[index[pipeline.ColumnForLead(lead)]]
		lane.Leads = append(lane.Leads, lead)
		if lead.DealAmount != nil {
			lane.Value = lane.Value.Add(*lead.DealAmount)
		}
	}
	return board, nil
}

// Report aggregates the lead collection for the dashboard.
type Report struct {
	Total          int
	ByStatus       map[domain.LeadStatus]int
	BySource       map[string]int
	ByAssignee     map[string]int
	ConversionRate decimal.Decimal
	PipelineValue  decimal.Decimal
	WonValue       decimal.Decimal
	Counts         followup.Counts
	TopAssignees   []AssigneeStat
}

// AssigneeStat is one row of the assignee leaderboard.
type AssigneeStat struct {
	Name      string
	Leads     int
	Converted int
}

const (
	unassignedLabel = "Unassigned"
	unknownSource   = "Unknown"
)

// Dashboard computes the report from one read of the collection.
func (s *LeadService) Dashboard(ctx context.Context) (*Report, error) {
	views, err := s.Views(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReport(views), nil
}

// BuildReport aggregates already derived views. Pipeline value weights each
// open deal by its probability; closed deals do not count.
func BuildReport(views followup.Views) *Report {
	report := &Report{
		Total:          len(views.All),
		ByStatus:       make(map[domain.LeadStatus]int, len(domain.CanonicalStatuses)),
		BySource:       map[string]int{},
		ByAssignee:     map[string]int{},
		ConversionRate: decimal.Zero,
		PipelineValue:  decimal.Zero,
		WonValue:       decimal.Zero,
		Counts:         views.Counts(),
	}
	for _, status := range domain.CanonicalStatuses {
		report.ByStatus[status] = 0
	}

	hundred := decimal.NewFromInt(100)
	stats := map[string]*AssigneeStat{}
	for _, lead := range views.All {
		status := pipeline.Normalize(lead.Status)
		report.ByStatus[status]++

		source := lead.Source
		if source == "" {
			source = unknownSource
		}
		report.BySource[source]++

		assignee := lead.AssignedTo
		if assignee == "" {
			assignee = unassignedLabel
		}
		report.ByAssignee[assignee]++
		stat, ok := stats[assignee]
		if !ok {
			stat = &AssigneeStat{Name: assignee}
			stats[assignee] = stat
		}
		stat.Leads++

		if lead.DealAmount == nil {
			if status == domain.LeadStatusConverted {
				stat.Converted++
			}
			continue
		}
		switch {
		case status == domain.LeadStatusConverted:
			stat.Converted++
			report.WonValue = report.WonValue.Add(*lead.DealAmount)
		case !status.IsClosed():
			prob := decimal.Zero
			if lead.Probability != nil {
				prob = decimal.NewFromInt(int64(*lead.Probability))
			}
			report.PipelineValue = report.PipelineValue.Add(lead.DealAmount.Mul(prob).Div(hundred))
		}
	}

	if report.Total > 0 {
		converted := decimal.NewFromInt(int64(report.ByStatus[domain.LeadStatusConverted]))
		report.ConversionRate = converted.Mul(hundred).Div(decimal.NewFromInt(int64(report.Total))).Round(2)
	}
	report.PipelineValue = report.PipelineValue.Round(2)

	for _, stat := range stats {
		report.TopAssignees = append(report.TopAssignees, *stat)
	}
	sort.Slice(report.TopAssignees, func(i, j int) bool {
		a, b := report.TopAssignees[i], report.TopAssignees[j]
		if a.Converted != b.Converted {
			return a.Converted > b.Converted
		}
		if a.Leads != b.Leads {
			return a.Leads > b.Leads
		}
		return a.Name < b.Name
	})
	return report
}
