// Package kvstore is the persistence capability behind every collection the
// CRM keeps: a flat namespace of keys, each holding one JSON document that is
// read and written wholesale.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// Collection keys.
const (
	KeyLeads            = "crm_leads"
	KeyUsers            = "crm_users"
	KeyUserPasswords    = "crm_user_passwords"
	KeySystemSettings   = "crm_system_settings"
	KeySecuritySettings = "crm_security_settings"
	KeyMasterData       = "crm_master_data"
	KeyLeadHistory      = "crm_lead_history"
)

// ErrNotFound is returned by backends when a key holds nothing.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a key-value backend. Implementations must return ErrNotFound for
// missing keys and must not retain the value slices passed to Set.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LoadJSON decodes the document at key into dest. It reports false, with
// dest untouched, when the key is empty.
func LoadJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, apperrors.NewStorageError("read "+key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, apperrors.NewStorageError("decode "+key, err)
	}
	return true, nil
}

// SaveJSON encodes value and writes it at key.
func SaveJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStorageError("encode "+key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return apperrors.NewStorageError("write "+key, err)
	}
	return nil
}

// Remove deletes key. Deleting a missing key is not an error.
func Remove(ctx context.Context, s Store, key string) error {
	if err := s.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.NewStorageError("delete "+key, err)
	}
	return nil
}
