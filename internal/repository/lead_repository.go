package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/kvstore"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// LeadRepository encapsulates lead persistence. The collection is stored as
// one document and rewritten on every mutation.
type LeadRepository interface {
	List(ctx context.Context) ([]domain.Lead, error)
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, id string, patch domain.LeadPatch) (*domain.Lead, error)
	Delete(ctx context.Context, id string) (bool, error)
	ReplaceAll(ctx context.Context, leads []domain.Lead) error
}

type leadRepository struct {
	store kvstore.Store
	now   func() time.Time
	// serializes read-modify-write cycles within this process; other
	// processes sharing the backend still race with last write winning.
	mu sync.Mutex
}

// NewLeadRepository returns a repository over the crm_leads collection.
func NewLeadRepository(store kvstore.Store, now func() time.Time) LeadRepository {
	if now == nil {
		now = time.Now
	}
	return &leadRepository{store: store, now: now}
}

func (r *leadRepository) List(ctx context.Context) ([]domain.Lead, error) {
	return r.load(ctx)
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	leads, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfLead(leads, id)
	if idx < 0 {
		return nil, leadNotFound(id)
	}
	lead := leads[idx]
	return &lead, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.load(ctx)
	if err != nil {
		return err
	}
	if emailTaken(leads, lead.Email, "") {
		return apperrors.NewDuplicateEmail(lead.Email)
	}

	now := r.now()
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	} else if indexOfLead(leads, lead.ID) >= 0 {
		return apperrors.NewConflict("lead id already exists", map[string]any{"lead_id": lead.ID})
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now
	lead.LastActivity = now
	if lead.Notes == nil {
		lead.Notes = []domain.Note{}
	}

	leads = append(leads, *lead)
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyLeads, leads)
}

func (r *leadRepository) Update(ctx context.Context, id string, patch domain.LeadPatch) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfLead(leads, id)
	if idx < 0 {
		return nil, leadNotFound(id)
	}
	if patch.Email != nil && emailTaken(leads, *patch.Email, id) {
		return nil, apperrors.NewDuplicateEmail(*patch.Email)
	}

	lead := leads[idx]
	patch.Apply(&lead)
	lead.ID = leads[idx].ID
	lead.CreatedAt = leads[idx].CreatedAt

	now := r.now()
	if now.Before(lead.UpdatedAt) {
		now = lead.UpdatedAt
	}
	lead.UpdatedAt = now
	lead.LastActivity = now

	leads[idx] = lead
	if err := kvstore.SaveJSON(ctx, r.store, kvstore.KeyLeads, leads); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOfLead(leads, id)
	if idx < 0 {
		return false, nil
	}
	leads = append(leads[:idx], leads[idx+1:]...)
	if err := kvstore.SaveJSON(ctx, r.store, kvstore.KeyLeads, leads); err != nil {
		return false, err
	}
	return true, nil
}

func (r *leadRepository) ReplaceAll(ctx context.Context, leads []domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if leads == nil {
		leads = []domain.Lead{}
	}
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyLeads, leads)
}

func (r *leadRepository) load(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	if _, err := kvstore.LoadJSON(ctx, r.store, kvstore.KeyLeads, &leads); err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return leads, nil
}

func indexOfLead(leads []domain.Lead, id string) int {
	for i := range leads {
		if leads[i].ID == id {
			return i
		}
	}
	return -1
}

// emailTaken reports whether another lead (not exceptID) uses email,
// compared case-insensitively. Empty emails never collide.
func emailTaken(leads []domain.Lead, email, exceptID string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, lead := range leads {
		if lead.ID != exceptID && strings.EqualFold(strings.TrimSpace(lead.Email), email) {
			return true
		}
	}
	return false
}

func leadNotFound(id string) error {
	return apperrors.NewNotFound("lead", map[string]any{"lead_id": id})
}
