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

// UserRepository defines persistence access for the CRM user directory.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	store kvstore.Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewUserRepository returns a repository over the crm_users collection.
func NewUserRepository(store kvstore.Store, now func() time.Time) UserRepository {
	if now == nil {
		now = time.Now
	}
	return &userRepository{store: store, now: now}
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.load(ctx)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	if indexOfUserEmail(users, user.Email, "") >= 0 {
		return apperrors.NewDuplicateEmail(user.Email)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	users = append(users, *user)
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyUsers, users)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOfUser(users, user.ID)
	if idx < 0 {
		return userNotFound(user.ID)
	}
	if indexOfUserEmail(users, user.Email, user.ID) >= 0 {
		return apperrors.NewDuplicateEmail(user.Email)
	}
	user.CreatedAt = users[idx].CreatedAt
	user.UpdatedAt = r.now()
	users[idx] = *user
	return kvstore.SaveJSON(ctx, r.store, kvstore.KeyUsers, users)
}

func (r *userRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOfUser(users, id)
	if idx < 0 {
		return false, nil
	}
	users = append(users[:idx], users[idx+1:]...)
	if err := kvstore.SaveJSON(ctx, r.store, kvstore.KeyUsers, users); err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfUser(users, id)
	if idx < 0 {
		return nil, userNotFound(id)
	}
	user := users[idx]
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfUserEmail(users, email, "")
	if idx < 0 {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	user := users[idx]
	return &user, nil
}

func (r *userRepository) load(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if _, err := kvstore.LoadJSON(ctx, r.store, kvstore.KeyUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func indexOfUser(users []domain.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfUserEmail(users []domain.User, email, exceptID string) int {
	email = strings.TrimSpace(email)
	if email == "" {
		return -1
	}
	for i := range users {
		if users[i].ID != exceptID && strings.EqualFold(users[i].Email, email) {
			return i
		}
	}
	return -1
}

func userNotFound(id string) error {
	return apperrors.NewNotFound("user", map[string]any{"user_id": id})
}
