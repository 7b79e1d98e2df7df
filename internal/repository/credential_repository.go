package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/leadflow/internal/kvstore"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// CredentialRepository manages password hashes keyed by user id. Hashes live
// in crm_user_passwords, apart from the user directory.
type CredentialRepository interface {
	GetHash(ctx context.Context, userID string) (string, error)
	SetHash(ctx context.Context, userID, hash string) error
	Delete(ctx context.Context, userID string) error
}

type credentialRepository struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewCredentialRepository constructs repository.
func NewCredentialRepository(store kvstore.Store) CredentialRepository {
	return &credentialRepository{store: store}
}

func (r *credentialRepository) GetHash(ctx context.Context, userID string) (string, error) {
	hashes, err := r.load(ctx)
	if err != nil {
		return "", err
	}
	hash, ok := hashes[userID]
	if !ok || hash == "" {
		return "", apperrors.NewNotFound("credential", map[string]any{"user_id": userID})
	}
	return hash, nil
}

func (r *credentialRepository) SetHash(ctx context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hashes, err := r.load(ctx)
	if err != nil {
		return err
	}
	hashes[userID] = hash
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyUserPasswords, hashes)
}

func (r *credentialRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hashes, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := hashes[userID]; !ok {
		return nil
	}
	delete(hashes, userID)
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyUserPasswords, hashes)
}

func (r *credentialRepository) load(ctx context.Context) (map[string]string, error) {
	hashes := map[string]string{}
	if _, err := kvstore.LoadJSON(ctx, r.store, kvstore.KeyUserPasswords, &hashes); err != nil {
		return nil, err
	}
	if hashes == nil {
		hashes = map[string]string{}
	}
	return hashes, nil
}
