package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/leadflow/internal/api/dto"
	"github.com/spec-kit/leadflow/internal/api/validate"
	"github.com/spec-kit/leadflow/internal/followup"
	"github.com/spec-kit/leadflow/internal/pipeline"
	"github.com/spec-kit/leadflow/internal/service"
)

// BoardHandler exposes the kanban board and the dashboard report.
type BoardHandler struct {
	leads       *service.LeadService
	assignments *service.AssignmentService
}

// NewBoardHandler constructs handler.
func NewBoardHandler(leads *service.LeadService, assignments *service.AssignmentService) *BoardHandler {
	return &BoardHandler{leads: leads, assignments: assignments}
}

// Board handles GET /board.
func (h *BoardHandler) Board(c *fiber.Ctx) error {
	var q dto.BoardQuery
	if err := validate.Query(c, &q); err != nil {
		return err
	}
	tab, err := followup.ParseTab(q.Tab)
	if err != nil {
		return err
	}
	board, err := h.leads.Board(c.UserContext(), tab)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewBoardResponse(board)))
}

// Columns handles GET /board/columns.
func (h *BoardHandler) Columns(c *fiber.Ctx) error {
	cols := pipeline.Columns()
	out := make([]fiber.Map, 0, len(cols))
	for _, col := range cols {
		out = append(out, fiber.Map{"id": col.ID, "title": col.Title, "status": col.Status})
	}
	return c.JSON(data(out))
}

// Move handles POST /board/move. The source column is validated; an
// unknown destination surfaces as NOT_FOUND from the column mapper.
func (h *BoardHandler) Move(c *fiber.Ctx) error {
	var req dto.MoveLeadRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	source, err := pipeline.ParseColumn(req.SourceColumn)
	if err != nil {
		return err
	}
	input := service.MoveInput{LeadID: req.LeadID, Source: source}
	if req.DestColumn != nil {
		dest := pipeline.ColumnID(strings.TrimSpace(*req.DestColumn))
		input.Destination = &dest
	}

	result, err := h.leads.MoveLead(c.UserContext(), actorOf(c), input)
	if err != nil {
		return err
	}
	resp := dto.MoveLeadResponse{Applied: result.Applied}
	if result.Lead != nil {
		lead := dto.NewLeadResponse(*result.Lead)
		resp.Lead = &lead
	}
	return c.JSON(data(resp))
}

// Dashboard handles GET /reports/dashboard.
func (h *BoardHandler) Dashboard(c *fiber.Ctx) error {
	report, err := h.leads.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewDashboardResponse(report)))
}

// Workloads handles GET /reports/workload.
func (h *BoardHandler) Workloads(c *fiber.Ctx) error {
	loads, err := h.assignments.Workloads(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(data(loads))
}
