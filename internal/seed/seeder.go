package seed

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/repository"
)

// Seeder writes default data into empty collections.
type Seeder struct {
	leads       repository.LeadRepository
	users       repository.UserRepository
	credentials repository.CredentialRepository
	bcryptCost  int
	logger      *zap.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(leads repository.LeadRepository, users repository.UserRepository, credentials repository.CredentialRepository, bcryptCost int, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{leads: leads, users: users, credentials: credentials, bcryptCost: bcryptCost, logger: logger}
}

// Run seeds accounts and leads. Collections that already hold data are
// left alone.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedAccounts(ctx); err != nil {
		return err
	}
	return s.seedLeads(ctx)
}

func (s *Seeder) seedAccounts(ctx context.Context) error {
	existing, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, account := range DefaultAccounts {
		roles := []domain.Role{account.Role}
		user := &domain.User{
			Name:        account.Name,
			Email:       account.Email,
			Roles:       roles,
			Permissions: auth.PermissionsFor(roles),
			Active:      true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		hash, err := auth.HashPassword(account.Password, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := s.credentials.SetHash(ctx, user.ID, hash); err != nil {
			return err
		}
	}
	s.logger.Info("seeded default accounts", zap.Int("count", len(DefaultAccounts)))
	return nil
}

func (s *Seeder) seedLeads(ctx context.Context) error {
	existing, err := s.leads.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	leads := DefaultLeads()
	if err := s.leads.ReplaceAll(ctx, leads); err != nil {
		return err
	}
	s.logger.Info("seeded default leads", zap.Int("count", len(leads)))
	return nil
}
