package service

import (
	"context"
	"strings"

	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/repository"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// AuthService coordinates login, token refresh and password changes.
type AuthService struct {
	users       repository.UserRepository
	credentials repository.CredentialRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	CredentialRepo repository.CredentialRepository
	Tokens         *auth.TokenManager
	BcryptCost     int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		credentials: deps.CredentialRepo,
		tokenMgr:    deps.Tokens,
		bcryptCost:  deps.BcryptCost,
	}
}

// Authenticate checks credentials and issues an access/refresh token pair.
// Unknown email, wrong password and inactive accounts all fail the same way.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !user.Active {
		return nil, invalidCredentials()
	}
	hash, err := s.credentials.GetHash(ctx, user.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !auth.PasswordMatches(hash, password) {
		return nil, invalidCredentials()
	}
	return s.issue(*user)
}

// IsAuthenticated reports whether token is a valid access token for an
// active user.
func (s *AuthService) IsAuthenticated(ctx context.Context, token string) bool {
	claims, err := s.tokenMgr.ParseToken(token, domain.TokenTypeAccess)
	if err != nil {
		return false
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	return err == nil && user.Active
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := s.tokenMgr.ParseToken(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("user is inactive")
	}
	return s.issue(*user)
}

// Me returns the current directory entry for userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return passwordTooShort()
	}
	hash, err := s.credentials.GetHash(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return invalidCredentials()
		}
		return err
	}
	if !auth.PasswordMatches(hash, currentPassword) {
		return invalidCredentials()
	}
	newHash, err := hashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.credentials.SetHash(ctx, userID, newHash)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user domain.User) (*domain.Session, error) {
	user.Permissions = mergePermissions(user.Permissions, auth.PermissionsFor(user.Roles))
	token, exp, err := s.tokenMgr.GenerateToken(user, domain.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, refreshExp, err := s.tokenMgr.GenerateToken(user, domain.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.Session{
		User:             user,
		Token:            token,
		ExpiresAt:        exp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func invalidCredentials() error {
	return apperrors.NewUnauthorized("invalid credentials")
}

func mergePermissions(explicit, derived []domain.Permission) []domain.Permission {
	out := append([]domain.Permission{}, derived...)
	for _, p := range explicit {
		found := false
		for _, existing := range out {
			if existing == p {
				found = true
				break
			}
		}
		if !found {
			out = append(out, p)
		}
	}
	return out
}
