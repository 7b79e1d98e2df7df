package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/leadflow/internal/api/dto"
	"github.com/spec-kit/leadflow/internal/api/validate"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/followup"
	"github.com/spec-kit/leadflow/internal/pipeline"
	"github.com/spec-kit/leadflow/internal/service"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// LeadsHandler exposes lead CRUD, notes, follow-ups and import.
type LeadsHandler struct {
	leads       *service.LeadService
	assignments *service.AssignmentService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leads *service.LeadService, assignments *service.AssignmentService) *LeadsHandler {
	return &LeadsHandler{leads: leads, assignments: assignments}
}

// List handles GET /leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	var q dto.LeadListQuery
	if err := validate.Query(c, &q); err != nil {
		return err
	}
	tab, err := followup.ParseTab(q.Tab)
	if err != nil {
		return err
	}
	query := service.LeadQuery{Tab: tab, Search: q.Q}
	if raw := strings.TrimSpace(q.Status); raw != "" {
		if !pipeline.IsKnownAlias(raw) {
			return apperrors.NewValidationError("unknown status filter", map[string]any{"status": raw})
		}
		status := pipeline.Normalize(raw)
		query.Status = &status
	}

	leads, counts, err := h.leads.ListLeads(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewLeadResponses(leads),
		"meta": fiber.Map{"tab": tab, "total": len(leads), "counts": counts},
	})
}

// Counts handles GET /leads/counts.
func (h *LeadsHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.leads.Counts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(data(counts))
}

// Create handles POST /leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateLeadRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.CreateLead(c.UserContext(), actorOf(c), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(dto.NewLeadResponse(*lead)))
}

// Get handles GET /leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	lead, err := h.leads.GetLead(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewLeadResponse(*lead)))
}

// Update handles PATCH /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateLeadRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.UpdateLead(c.UserContext(), actorOf(c), c.Params("id"), req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewLeadResponse(*lead)))
}

// Delete handles DELETE /leads/:id.
func (h *LeadsHandler) Delete(c *fiber.Ctx) error {
	if err := h.leads.DeleteLead(c.UserContext(), actorOf(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History handles GET /leads/:id/history.
func (h *LeadsHandler) History(c *fiber.Ctx) error {
	entries, err := h.leads.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.LeadHistoryEntry{}
	}
	return c.JSON(data(entries))
}

// AddNote handles POST /leads/:id/notes.
func (h *LeadsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	_, note, err := h.leads.AddNote(c.UserContext(), actorOf(c), c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(note))
}

// DeleteNote handles DELETE /leads/:id/notes/:noteId.
func (h *LeadsHandler) DeleteNote(c *fiber.Ctx) error {
	if _, err := h.leads.DeleteNote(c.UserContext(), actorOf(c), c.Params("id"), c.Params("noteId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ScheduleFollowup handles POST /leads/:id/followup.
func (h *LeadsHandler) ScheduleFollowup(c *fiber.Ctx) error {
	var req dto.ScheduleFollowupRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.ScheduleFollowup(c.UserContext(), actorOf(c), c.Params("id"), req.NextFollowupDate)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewLeadResponse(*lead)))
}

// CompleteFollowup handles POST /leads/:id/followup/complete.
func (h *LeadsHandler) CompleteFollowup(c *fiber.Ctx) error {
	var req dto.CompleteFollowupRequest
	if len(bytes.TrimSpace(c.Body())) > 0 {
		if err := validate.DecodeJSONBody(c, &req); err != nil {
			return err
		}
	}
	var at time.Time
	if req.CompletedAt != nil {
		at = *req.CompletedAt
	}
	lead, err := h.leads.CompleteFollowup(c.UserContext(), actorOf(c), c.Params("id"), at)
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewLeadResponse(*lead)))
}

// Assign handles POST /leads/:id/assign.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignLeadRequest
	if err := validate.DecodeJSONBody(c, &req); err != nil {
		return err
	}
	var lead *domain.Lead
	if strings.TrimSpace(req.UserID) == "" {
		lead, err = h.assignments.UnassignLead(c.UserContext(), user, c.Params("id"))
	} else {
		lead, err = h.assignments.AssignLead(c.UserContext(), user, c.Params("id"), req.UserID)
	}
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewLeadResponse(*lead)))
}

// Claim handles POST /leads/:id/claim.
func (h *LeadsHandler) Claim(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	lead, err := h.assignments.SelfAssignLead(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewLeadResponse(*lead)))
}

// Import handles POST /leads/import. The CSV comes either as a multipart
// "file" field or as the raw request body; ?charset= selects the decoding.
func (h *LeadsHandler) Import(c *fiber.Ctx) error {
	charset := c.Query("charset")
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable upload", map[string]any{"error": err.Error()})
		}
		defer f.Close()
		result, err := h.leads.ImportLeads(c.UserContext(), actorOf(c), f, charset)
		if err != nil {
			return err
		}
		return c.JSON(data(result))
	}
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return apperrors.NewValidationError("csv body is required", nil)
	}
	result, err := h.leads.ImportLeads(c.UserContext(), actorOf(c), bytes.NewReader(body), charset)
	if err != nil {
		return err
	}
	return c.JSON(data(result))
}
