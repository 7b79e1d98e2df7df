package repository

import (
	"context"
	"encoding/json"

	"github.com/spec-kit/leadflow/internal/kvstore"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// SettingsSection names one admin settings document.
type SettingsSection string

const (
	SettingsSystem     SettingsSection = "system"
	SettingsSecurity   SettingsSection = "security"
	SettingsMasterData SettingsSection = "master_data"
)

var sectionKeys = map[SettingsSection]string{
	SettingsSystem:     kvstore.KeySystemSettings,
	SettingsSecurity:   kvstore.KeySecuritySettings,
	SettingsMasterData: kvstore.KeyMasterData,
}

// ParseSettingsSection validates a section name taken from a request path.
func ParseSettingsSection(raw string) (SettingsSection, error) {
	section := SettingsSection(raw)
	if _, ok := sectionKeys[section]; !ok {
		return "", apperrors.NewNotFound("settings section", map[string]any{"section": raw})
	}
	return section, nil
}

// SettingsRepository stores free-form JSON settings objects.
type SettingsRepository interface {
	Get(ctx context.Context, section SettingsSection) (map[string]json.RawMessage, error)
	Put(ctx context.Context, section SettingsSection, values map[string]json.RawMessage) error
}

type settingsRepository struct {
	store kvstore.Store
}

// NewSettingsRepository constructs repository.
func NewSettingsRepository(store kvstore.Store) SettingsRepository {
	return &settingsRepository{store: store}
}

func (r *settingsRepository) Get(ctx context.Context, section SettingsSection) (map[string]json.RawMessage, error) {
	key, ok := sectionKeys[section]
	if !ok {
		return nil, apperrors.NewNotFound("settings section", map[string]any{"section": string(section)})
	}
	values := map[string]json.RawMessage{}
	if _, err := kvstore.LoadJSON(ctx, r.store, key, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]json.RawMessage{}
	}
	return values, nil
}

func (r *settingsRepository) Put(ctx context.Context, section SettingsSection, values map[string]json.RawMessage) error {
	key, ok := sectionKeys[section]
	if !ok {
		return apperrors.NewNotFound("settings section", map[string]any{"section": string(section)})
	}
	if values == nil {
		values = map[string]json.RawMessage{}
	}
	return kvstore.SaveJSON(ctx, r.store, key, values)
}
