package service

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/events"
	"github.com/spec-kit/leadflow/internal/pipeline"
	"github.com/spec-kit/leadflow/internal/repository"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// AssignmentService handles lead assignment operations. Assignees are
// display names, so assignment goes through the active user directory to
// avoid typos.
type AssignmentService struct {
	leads *LeadService
	users repository.UserRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(leads *LeadService, users repository.UserRepository) *AssignmentService {
	return &AssignmentService{leads: leads, users: users}
}

// Workload is the open lead count for one assignee.
type Workload struct {
	Assignee  string `json:"assignee"`
	OpenLeads int    `json:"openLeads"`
}

// SelfAssignLead assigns the lead to the calling user.
func (s *AssignmentService) SelfAssignLead(ctx context.Context, caller *domain.User, leadID string) (*domain.Lead, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	name := caller.Name
	return s.leads.UpdateLead(ctx, actorFromUser(caller), leadID, domain.LeadPatch{AssignedTo: &name})
}

// AssignLead assigns the lead to an active user by user id.
func (s *AssignmentService) AssignLead(ctx context.Context, caller *domain.User, leadID, userID string) (*domain.Lead, error) {
	assignee, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !assignee.Active {
		return nil, apperrors.NewValidationError("assignee is inactive", map[string]any{"user_id": userID})
	}
	name := assignee.Name
	return s.leads.UpdateLead(ctx, actorFromUser(caller), leadID, domain.LeadPatch{AssignedTo: &name})
}

// UnassignLead clears the assignee.
func (s *AssignmentService) UnassignLead(ctx context.Context, caller *domain.User, leadID string) (*domain.Lead, error) {
	empty := ""
	return s.leads.UpdateLead(ctx, actorFromUser(caller), leadID, domain.LeadPatch{AssignedTo: &empty})
}

// Workloads counts open leads (not Converted or Lost) per assignee, busiest
// first. Active users with no leads are listed with zero.
func (s *AssignmentService) Workloads(ctx context.Context) ([]Workload, error) {
	leads, err := s.leads.leads.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, user := range users {
		if user.Active {
			counts[user.Name] = 0
		}
	}
	for _, lead := range leads {
		assignee := strings.TrimSpace(lead.AssignedTo)
		if assignee == "" || pipeline.Normalize(lead.Status).IsClosed() {
			continue
		}
		counts[assignee]++
	}

	out := make([]Workload, 0, len(counts))
	for name, n := range counts {
		out = append(out, Workload{Assignee: name, OpenLeads: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenLeads != out[j].OpenLeads {
			return out[i].OpenLeads > out[j].OpenLeads
		}
		return out[i].Assignee < out[j].Assignee
	})
	return out, nil
}

func actorFromUser(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Name: user.Name}
}
