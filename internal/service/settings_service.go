package service

import (
	"context"
	"encoding/json"

	"github.com/spec-kit/leadflow/internal/repository"
)

// SettingsService exposes the admin settings documents.
type SettingsService struct {
	settings repository.SettingsRepository
}

// NewSettingsService constructs the service.
func NewSettingsService(settings repository.SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the named section; an unknown section is NotFound.
func (s *SettingsService) Get(ctx context.Context, section string) (map[string]json.RawMessage, error) {
	parsed, err := repository.ParseSettingsSection(section)
	if err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, parsed)
}

// Put replaces the named section wholesale.
func (s *SettingsService) Put(ctx context.Context, section string, values map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	parsed, err := repository.ParseSettingsSection(section)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Put(ctx, parsed, values); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, parsed)
}
