package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/followup"
	"github.com/spec-kit/leadflow/internal/pipeline"
	"github.com/spec-kit/leadflow/internal/repository"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// TransitionRecorder counts board transitions. *observability.Metrics
// satisfies it.
type TransitionRecorder interface {
	RecordTransition(from, to domain.LeadStatus)
}

// LeadService coordinates lead workflows.
type LeadService struct {
	leads       repository.LeadRepository
	history     repository.LeadHistoryRepository
	dispatcher  events.Dispatcher
	transitions TransitionRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// LeadDependencies bundles collaborators for the lead service.
type LeadDependencies struct {
	LeadRepo    repository.LeadRepository
	HistoryRepo repository.LeadHistoryRepository
	Dispatcher  events.Dispatcher
	Transitions TransitionRecorder
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	s := &LeadService{
		leads:       deps.LeadRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		transitions: deps.Transitions,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// LeadCreateInput describes lead creation payload.
type LeadCreateInput struct {
	Name             string
	Email            string
	Company          string
	Phone            string
	Source           string
	Status           string
	AssignedTo       string
	NextFollowupDate *time.Time
	LastFollowupDate *time.Time
	DealAmount       *decimal.Decimal
	Probability      *int
}

// LeadQuery filters the list view.
type LeadQuery struct {
	Tab    followup.Tab
	Search string
	// Status, when set, keeps leads whose normalized status equals it.
	Status *domain.LeadStatus
}

// MoveInput describes a board drop. A nil Destination is a cancelled drop.
type MoveInput struct {
	LeadID      string
	Source      pipeline.ColumnID
	Destination *pipeline.ColumnID
}

// MoveResult reports whether a move changed the lead.
type MoveResult struct {
	Applied bool
	Lead    *domain.Lead
}

// CreateLead validates and stores a new lead. The supplied status is
// normalized; an empty status starts the lead as New.
func (s *LeadService) CreateLead(ctx context.Context, actor events.Actor, input LeadCreateInput) (*domain.Lead, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("lead name is required", map[string]any{"name": "required"})
	}
	if err := validateProbability(input.Probability); err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(input.Status)
	if raw != "" && !pipeline.IsKnownAlias(raw) {
		s.logger.Info("unrecognized lead status defaulted",
			zap.String("status", raw),
			zap.String("default", string(pipeline.DefaultStatus)))
	}

	lead := &domain.Lead{
		Name:             name,
		Email:            strings.TrimSpace(input.Email),
		Company:          strings.TrimSpace(input.Company),
		Phone:            strings.TrimSpace(input.Phone),
		Source:           strings.TrimSpace(input.Source),
		Status:           string(pipeline.Normalize(raw)),
		AssignedTo:       strings.TrimSpace(input.AssignedTo),
		NextFollowupDate: input.NextFollowupDate,
		LastFollowupDate: input.LastFollowupDate,
		DealAmount:       input.DealAmount,
		Probability:      input.Probability,
		Notes:            []domain.Note{},
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, actor, lead.ID, "created", "", lead.Status)
	s.publishEvent(ctx, events.Event{
		Type:   events.EventLeadCreated,
		LeadID: lead.ID,
		Actor:  actor,
		Payload: events.LeadCreatedPayload{
			Name:       lead.Name,
			Email:      lead.Email,
			Status:     lead.Status,
			Source:     lead.Source,
			AssignedTo: lead.AssignedTo,
		},
	})
	if lead.AssignedTo != "" {
		s.publishAssigned(ctx, actor, lead, "")
	}
	return lead, nil
}

// GetLead returns one lead.
func (s *LeadService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

// UpdateLead merges patch into the lead. Status strings are stored as
// supplied so legacy values such as Follow-up survive an edit.
func (s *LeadService) UpdateLead(ctx context.Context, actor events.Actor, id string, patch domain.LeadPatch) (*domain.Lead, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperrors.NewValidationError("lead name is required", map[string]any{"name": "required"})
	}
	if err := validateProbability(patch.Probability); err != nil {
		return nil, err
	}

	before, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return before, nil
	}
	after, err := s.leads.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publishChanges(ctx, actor, before, after, patch)
	return after, nil
}

// DeleteLead removes a lead by id.
func (s *LeadService) DeleteLead(ctx context.Context, actor events.Actor, id string) error {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.leads.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NewNotFound("lead", map[string]any{"lead_id": id})
	}
	s.recordHistory(ctx, actor, id, "deleted", lead.Status, "")
	s.publishEvent(ctx, events.Event{
		Type:    events.EventLeadDeleted,
		LeadID:  id,
		Actor:   actor,
		Payload: events.LeadDeletedPayload{Name: lead.Name, Email: lead.Email},
	})
	return nil
}

// MoveLead applies a board drop. Cancelled drops and drops onto the source
// column change nothing. Any column may move to any other.
func (s *LeadService) MoveLead(ctx context.Context, actor events.Actor, input MoveInput) (MoveResult, error) {
	if input.Destination == nil {
		return MoveResult{}, nil
	}
	dest := *input.Destination
	if dest == input.Source {
		return MoveResult{}, nil
	}

	newStatus, err := pipeline.ColumnToStatus(dest)
	if err != nil {
		return MoveResult{}, err
	}

	before, err := s.leads.GetByID(ctx, input.LeadID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("board move for unknown lead",
				zap.String("lead_id", input.LeadID),
				zap.String("destination", string(dest)))
		}
		return MoveResult{}, err
	}

	status := string(newStatus)
	now := s.now()
	after, err := s.leads.Update(ctx, input.LeadID, domain.LeadPatch{Status: &status})
	if err != nil {
		s.logger.Warn("board move failed", zap.String("lead_id", input.LeadID), zap.Error(err))
		return MoveResult{}, err
	}

	from := pipeline.Normalize(before.Status)
	if s.transitions != nil {
		s.transitions.RecordTransition(from, newStatus)
	}
	s.recordHistory(ctx, actor, after.ID, "status", before.Status, after.Status)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventLeadStatusChanged,
		LeadID:    after.ID,
		Actor:     actor,
		Timestamp: now,
		Payload: events.LeadStatusChangedPayload{
			OldStatus: before.Status,
			NewStatus: after.Status,
			OldColumn: string(input.Source),
			NewColumn: string(dest),
		},
	})
	return MoveResult{Applied: true, Lead: after}, nil
}

// Views derives the follow-up views from a fresh read of the collection.
func (s *LeadService) Views(ctx context.Context) (followup.Views, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return followup.Views{}, err
	}
	return followup.Derive(leads, s.now()), nil
}

// Counts returns the size of each follow-up view.
func (s *LeadService) Counts(ctx context.Context) (followup.Counts, error) {
	views, err := s.Views(ctx)
	if err != nil {
		return followup.Counts{}, err
	}
	return views.Counts(), nil
}

// ListLeads returns the leads of one tab, narrowed by search text and
// status, most recently updated first.
func (s *LeadService) ListLeads(ctx context.Context, query LeadQuery) ([]domain.Lead, followup.Counts, error) {
	views, err := s.Views(ctx)
	if err != nil {
		return nil, followup.Counts{}, err
	}

	needle := strings.ToLower(strings.TrimSpace(query.Search))
	out := make([]domain.Lead, 0)
	for _, lead := range views.Filter(query.Tab) {
		if query.Status != nil && pipeline.Normalize(lead.Status) != *query.Status {
			continue
		}
		if needle != "" && !matchesSearch(lead, needle) {
			continue
		}
		out = append(out, lead)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, views.Counts(), nil
}

// AddNote appends a note to the lead.
func (s *LeadService) AddNote(ctx context.Context, actor events.Actor, leadID, content string) (*domain.Lead, *domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, apperrors.NewValidationError("note content is required", map[string]any{"content": "required"})
	}
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, nil, err
	}
	note := domain.Note{ID: uuid.NewString(), Content: content, CreatedAt: s.now()}
	notes := append(append([]domain.Note{}, lead.Notes...), note)
	updated, err := s.leads.Update(ctx, leadID, domain.LeadPatch{Notes: &notes})
	if err != nil {
		return nil, nil, err
	}
	s.recordHistory(ctx, actor, leadID, "note_added", "", note.ID)
	return updated, &note, nil
}

// DeleteNote removes one note from the lead.
func (s *LeadService) DeleteNote(ctx context.Context, actor events.Actor, leadID, noteID string) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	notes := make([]domain.Note, 0, len(lead.Notes))
	found := false
	for _, note := range lead.Notes {
		if note.ID == noteID {
			found = true
			continue
		}
		notes = append(notes, note)
	}
	if !found {
		return nil, apperrors.NewNotFound("note", map[string]any{"lead_id": leadID, "note_id": noteID})
	}
	updated, err := s.leads.Update(ctx, leadID, domain.LeadPatch{Notes: &notes})
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, actor, leadID, "note_deleted", noteID, "")
	return updated, nil
}

// ScheduleFollowup sets the next follow-up date.
func (s *LeadService) ScheduleFollowup(ctx context.Context, actor events.Actor, leadID string, next time.Time) (*domain.Lead, error) {
	if next.IsZero() {
		return nil, apperrors.NewValidationError("follow-up date is required", map[string]any{"nextFollowupDate": "required"})
	}
	return s.UpdateLead(ctx, actor, leadID, domain.LeadPatch{NextFollowupDate: &next})
}

// CompleteFollowup records a follow-up at the given instant (now when zero)
// and clears the scheduled one.
func (s *LeadService) CompleteFollowup(ctx context.Context, actor events.Actor, leadID string, at time.Time) (*domain.Lead, error) {
	if at.IsZero() {
		at = s.now()
	}
	return s.UpdateLead(ctx, actor, leadID, domain.LeadPatch{LastFollowupDate: &at, ClearNextFollowup: true})
}

// History lists audit entries for a lead.
func (s *LeadService) History(ctx context.Context, leadID string) ([]domain.LeadHistoryEntry, error) {
	if _, err := s.leads.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.LeadHistoryEntry{}, nil
	}
	return s.history.ListByLead(ctx, leadID)
}

func (s *LeadService) publishChanges(ctx context.Context, actor events.Actor, before, after *domain.Lead, patch domain.LeadPatch) {
	fields := patchFields(patch)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventLeadUpdated,
		LeadID:  after.ID,
		Actor:   actor,
		Payload: events.LeadUpdatedPayload{Fields: fields},
	})

	if before.Status != after.Status {
		from, to := pipeline.Normalize(before.Status), pipeline.Normalize(after.Status)
		if from != to && s.transitions != nil {
			s.transitions.RecordTransition(from, to)
		}
		s.recordHistory(ctx, actor, after.ID, "status", before.Status, after.Status)
		s.publishEvent(ctx, events.Event{
			Type:   events.EventLeadStatusChanged,
			LeadID: after.ID,
			Actor:  actor,
			Payload: events.LeadStatusChangedPayload{
				OldStatus: before.Status,
				NewStatus: after.Status,
				OldColumn: string(pipeline.StatusToColumn(from)),
				NewColumn: string(pipeline.StatusToColumn(to)),
			},
		})
	}
	if before.AssignedTo != after.AssignedTo {
		s.recordHistory(ctx, actor, after.ID, "assignee", before.AssignedTo, after.AssignedTo)
		if after.AssignedTo != "" {
			s.publishAssigned(ctx, actor, after, before.AssignedTo)
		}
	}
}

func (s *LeadService) publishAssigned(ctx context.Context, actor events.Actor, lead *domain.Lead, previous string) {
	s.publishEvent(ctx, events.Event{
		Type:   events.EventLeadAssigned,
		LeadID: lead.ID,
		Actor:  actor,
		Payload: events.LeadAssignedPayload{
			LeadName:         lead.Name,
			PreviousAssignee: previous,
			Assignee:         lead.AssignedTo,
		},
	})
}

func (s *LeadService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// recordHistory is best effort; a failed audit write never fails the
// mutation that already landed.
func (s *LeadService) recordHistory(ctx context.Context, actor events.Actor, leadID, changeType, oldValue, newValue string) {
	if s.history == nil {
		return
	}
	entry := &domain.LeadHistoryEntry{
		LeadID:     leadID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangedBy:  actor.Name,
		CreatedAt:  s.now(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("lead history write failed", zap.String("lead_id", leadID), zap.Error(err))
	}
}

func matchesSearch(lead domain.Lead, needle string) bool {
	for _, field := range []string{lead.Name, lead.Email, lead.Company} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func validateProbability(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return apperrors.NewValidationError("probability must be between 0 and 100", map[string]any{"probability": *p})
	}
	return nil
}

func patchFields(p domain.LeadPatch) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Email != nil, "email")
	add(p.Company != nil, "company")
	add(p.Phone != nil, "phone")
	add(p.Source != nil, "source")
	add(p.Status != nil, "status")
	add(p.AssignedTo != nil, "assignedTo")
	add(p.NextFollowupDate != nil || p.ClearNextFollowup, "nextFollowupDate")
	add(p.LastFollowupDate != nil, "lastFollowupDate")
	add(p.DealAmount != nil, "dealAmount")
	add(p.Probability != nil, "probability")
	add(p.Notes != nil, "notes")
	return fields
}
