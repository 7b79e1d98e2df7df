package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/kvstore"
	"github.com/spec-kit/leadflow/internal/repository"
	"github.com/spec-kit/leadflow/internal/seed"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

type authEnv struct {
	auth  *AuthService
	users *UserService
	repo  repository.UserRepository
	clock *testClock
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	store := kvstore.NewMemoryStore()
	clock := &testClock{now: fixtureNow}
	users := repository.NewUserRepository(store, clock.Now)
	creds := repository.NewCredentialRepository(store)
	require.NoError(t, seed.NewSeeder(repository.NewLeadRepository(store, clock.Now), users, creds, 4, nil).Run(context.Background()))

	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour).WithClock(clock.Now)
	return &authEnv{
		auth:  NewAuthService(AuthDependencies{UserRepo: users, CredentialRepo: creds, Tokens: tokens, BcryptCost: 4}),
		users: NewUserService(users, creds, 4),
		repo:  users,
		clock: clock,
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newAuthEnv(t)

	session, err := env.auth.Authenticate(ctx, " Manager@LeadFlow.io ", "manager123")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Manager", session.User.Name)
	assert.Equal(t, fixtureNow.Add(time.Hour), session.ExpiresAt)
	assert.Equal(t, fixtureNow.Add(24*time.Hour), session.RefreshExpiresAt)
	assert.Contains(t, session.User.Permissions, domain.PermissionReportsRead)
	assert.True(t, env.auth.IsAuthenticated(ctx, session.Token))
	assert.False(t, env.auth.IsAuthenticated(ctx, session.RefreshToken))

	for _, tc := range []struct{ email, password string }{
		{"manager@leadflow.io", "wrong"},
		{"nobody@leadflow.io", "manager123"},
	} {
		_, err := env.auth.Authenticate(ctx, tc.email, tc.password)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), tc.email)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	ctx := context.Background()
	env := newAuthEnv(t)
	user, err := env.repo.GetByEmail(ctx, "sales@leadflow.io")
	require.NoError(t, err)

	inactive := false
	_, err = env.users.UpdateUser(ctx, user.ID, UserUpdateInput{Active: &inactive})
	require.NoError(t, err)

	_, err = env.auth.Authenticate(ctx, "sales@leadflow.io", "sales123")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestRefreshAndExpiry(t *testing.T) {
	ctx := context.Background()
	env := newAuthEnv(t)
	session, err := env.auth.Authenticate(ctx, "admin@leadflow.io", "admin123")
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, session.Token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	env.clock.now = fixtureNow.Add(2 * time.Hour)
	assert.False(t, env.auth.IsAuthenticated(ctx, session.Token))

	refreshed, err := env.auth.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.True(t, env.auth.IsAuthenticated(ctx, refreshed.Token))
	assert.Equal(t, env.clock.now.Add(time.Hour), refreshed.ExpiresAt)

	env.clock.now = fixtureNow.Add(48 * time.Hour)
	_, err = env.auth.Refresh(ctx, session.RefreshToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newAuthEnv(t)
	user, err := env.repo.GetByEmail(ctx, "sales@leadflow.io")
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, user.ID, "wrong", "newpass1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	err = env.auth.ChangePassword(ctx, user.ID, "sales123", "123")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	require.NoError(t, env.auth.ChangePassword(ctx, user.ID, "sales123", "newpass1"))
	_, err = env.auth.Authenticate(ctx, "sales@leadflow.io", "newpass1")
	assert.NoError(t, err)
}

func TestUserDirectory(t *testing.T) {
	ctx := context.Background()
	env := newAuthEnv(t)

	created, err := env.users.CreateUser(ctx, UserCreateInput{
		Name:     "Emily Davis",
		Email:    "emily@leadflow.io",
		Password: "emily123",
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleSalesperson}, created.Roles)
	assert.True(t, created.Active)

	_, err = env.users.CreateUser(ctx, UserCreateInput{Name: "X", Email: "EMILY@leadflow.io", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = env.users.CreateUser(ctx, UserCreateInput{Name: "X", Email: "x@leadflow.io", Password: "secret1", Roles: []domain.Role{"owner"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	roles := []domain.Role{domain.RoleSalesManager}
	updated, err := env.users.UpdateUser(ctx, created.ID, UserUpdateInput{Roles: &roles})
	require.NoError(t, err)
	assert.Contains(t, updated.Permissions, domain.PermissionLeadsDelete)

	require.NoError(t, env.users.SetPassword(ctx, created.ID, "changed1"))
	_, err = env.auth.Authenticate(ctx, "emily@leadflow.io", "changed1")
	require.NoError(t, err)

	err = env.users.DeleteUser(ctx, created.ID, created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	admin, err := env.repo.GetByEmail(ctx, "admin@leadflow.io")
	require.NoError(t, err)
	require.NoError(t, env.users.DeleteUser(ctx, admin.ID, created.ID))
	err = env.users.DeleteUser(ctx, admin.ID, created.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = env.auth.Authenticate(ctx, "emily@leadflow.io", "changed1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestOverlongPasswordIsValidationError(t *testing.T) {
	ctx := context.Background()
	env := newAuthEnv(t)
	long := strings.Repeat("a", 80)

	_, err := env.users.CreateUser(ctx, UserCreateInput{Name: "Long", Email: "long@leadflow.io", Password: long})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = env.repo.GetByEmail(ctx, "long@leadflow.io")
	assert.True(t, apperrors.IsNotFound(err))

	sales, err := env.repo.GetByEmail(ctx, "sales@leadflow.io")
	require.NoError(t, err)
	err = env.users.SetPassword(ctx, sales.ID, long)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	err = env.auth.ChangePassword(ctx, sales.ID, "sales123", long)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.auth.Authenticate(ctx, "sales@leadflow.io", "sales123")
	assert.NoError(t, err)
}

type failingCredentials struct{ err error }

func (f failingCredentials) GetHash(context.Context, string) (string, error) { return "", f.err }
func (f failingCredentials) SetHash(context.Context, string, string) error   { return f.err }
func (f failingCredentials) Delete(context.Context, string) error            { return f.err }

func TestCreateUserRemovesEntryWhenCredentialWriteFails(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepository(kvstore.NewMemoryStore(), nil)
	writeErr := apperrors.NewStorageError("set credential", errors.New("disk full"))
	svc := NewUserService(users, failingCredentials{err: writeErr}, 4)

	_, err := svc.CreateUser(ctx, UserCreateInput{Name: "Emily Davis", Email: "emily@leadflow.io", Password: "emily123"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorage))

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
