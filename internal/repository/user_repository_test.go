package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/kvstore"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

func TestUserRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)}
	repo := NewUserRepository(kvstore.NewMemoryStore(), clock.Now)

	user := &domain.User{Name: "Admin", Email: "admin@leadflow.io", Roles: []domain.Role{domain.RoleAdmin}, Active: true}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	err := repo.Create(ctx, &domain.User{Name: "Other", Email: "ADMIN@leadflow.io"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	found, err := repo.GetByEmail(ctx, "Admin@LeadFlow.io")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	clock.now = clock.now.Add(time.Hour)
	found.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, found))
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(clock.now))

	removed, err := repo.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.GetByID(ctx, user.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(kvstore.NewMemoryStore())

	_, err := repo.GetHash(ctx, "u1")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repo.SetHash(ctx, "u1", "hash-1"))
	require.NoError(t, repo.SetHash(ctx, "u2", "hash-2"))

	hash, err := repo.GetHash(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", hash)

	require.NoError(t, repo.Delete(ctx, "u1"))
	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.GetHash(ctx, "u1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(kvstore.NewMemoryStore())

	values, err := repo.Get(ctx, SettingsSystem)
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, repo.Put(ctx, SettingsSystem, map[string]json.RawMessage{
		"companyName": json.RawMessage(`"Acme"`),
	}))
	values, err = repo.Get(ctx, SettingsSystem)
	require.NoError(t, err)
	assert.JSONEq(t, `"Acme"`, string(values["companyName"]))

	_, err = ParseSettingsSection("theme")
	assert.True(t, apperrors.IsNotFound(err))
	section, err := ParseSettingsSection("master_data")
	require.NoError(t, err)
	assert.Equal(t, SettingsMasterData, section)
}

func TestLeadHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadHistoryRepository(kvstore.NewMemoryStore(), nil)

	require.NoError(t, repo.Create(ctx, &domain.LeadHistoryEntry{LeadID: "a", ChangeType: "status", OldValue: "New", NewValue: "Contacted"}))
	require.NoError(t, repo.Create(ctx, &domain.LeadHistoryEntry{LeadID: "b", ChangeType: "created"}))

	entries, err := repo.ListByLead(ctx, "a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Contacted", entries[0].NewValue)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}
