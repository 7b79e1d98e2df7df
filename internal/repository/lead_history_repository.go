package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/kvstore"
)

// maxHistoryEntries bounds the audit collection; the oldest entries are
// dropped first.
const maxHistoryEntries = 5000

// LeadHistoryRepository stores audit entries.
type LeadHistoryRepository interface {
	Create(ctx context.Context, entry *domain.LeadHistoryEntry) error
	ListByLead(ctx context.Context, leadID string) ([]domain.LeadHistoryEntry, error)
}

type leadHistoryRepository struct {
	store kvstore.Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewLeadHistoryRepository builds repository.
func NewLeadHistoryRepository(store kvstore.Store, now func() time.Time) LeadHistoryRepository {
	if now == nil {
		now = time.Now
	}
	return &leadHistoryRepository{store: store, now: now}
}

func (r *leadHistoryRepository) Create(ctx context.Context, entry *domain.LeadHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load(ctx)
	if err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	entries = append(entries, *entry)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyLeadHistory, entries)
}

func (r *leadHistoryRepository) ListByLead(ctx context.Context, leadID string) ([]domain.LeadHistoryEntry, error) {
	entries, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeadHistoryEntry, 0)
	for _, entry := range entries {
		if entry.LeadID == leadID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *leadHistoryRepository) load(ctx context.Context) ([]domain.LeadHistoryEntry, error) {
	var entries []domain.LeadHistoryEntry
	if _, err := kvstore.LoadJSON(ctx, r.store, kvstore.KeyLeadHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
