package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/model"
)

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrMissingPasswordHash = errors.New("user has no password hash")
)

// UserRepository defines the interface for user-related storage operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Email        *string
	PasswordHash *string
}

// FilterUsersParams defines the parameters for filtering and paginating users.
type FilterUsersParams struct {
	Email    *string
	Limit    uint64
	Offset   uint64
	SortDesc bool
}

type userSnapshotRepository struct {
	users *Collection[model.User]
	now   func() time.Time
}

func NewUserRepository(backend Backend, logger *zerolog.Logger) UserRepository {
	return &userSnapshotRepository{
		users: NewCollection[model.User](backend, KindUsers, logger),
		now:   time.Now,
	}
}

func (r *userSnapshotRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.PasswordHash == "" {
		return nil, ErrMissingPasswordHash
	}

	created := *user
	created.Email = model.NormalizeEmail(created.Email)
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		for _, u := range users {
			if model.NormalizeEmail(u.Email) == created.Email {
				return nil, ErrDuplicateEmail
			}
		}
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *userSnapshotRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, ok, err := r.users.Find(ctx, func(u model.User) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	return &user, nil
}

func (r *userSnapshotRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)

	user, ok, err := r.users.Find(ctx, func(u model.User) bool { return model.NormalizeEmail(u.Email) == email })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	return &user, nil
}

func (r *userSnapshotRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	if params.Email == nil && params.PasswordHash == nil {
		return nil, errors.New("no user fields to update")
	}
	if params.PasswordHash != nil && *params.PasswordHash == "" {
		return nil, ErrMissingPasswordHash
	}

	var updated model.User
	err := r.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := slices.IndexFunc(users, func(u model.User) bool { return u.ID == id })
		if idx == -1 {
			return nil, ErrNotFound
		}

		if params.Email != nil {
			email := model.NormalizeEmail(*params.Email)
			for i, u := range users {
				if i != idx && model.NormalizeEmail(u.Email) == email {
					return nil, ErrDuplicateEmail
				}
			}
			users[idx].Email = email
		}
		if params.PasswordHash != nil {
			users[idx].PasswordHash = *params.PasswordHash
		}
		users[idx].UpdatedAt = r.now().UTC()

		updated = users[idx]
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *userSnapshotRepository) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	var deleted model.User
	err := r.users.Mutate(ctx, func(users []model.User) ([]model.User, error) {
		idx := slices.IndexFunc(users, func(u model.User) bool { return u.ID == id })
		if idx == -1 {
			return nil, ErrNotFound
		}

		deleted = users[idx]
		return slices.Delete(users, idx, idx+1), nil
	})
	if err != nil {
		return nil, err
	}

	return &deleted, nil
}

func (r *userSnapshotRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	all, err := r.users.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []model.User
	for _, u := range all {
		if params.Email != nil && model.NormalizeEmail(u.Email) != model.NormalizeEmail(*params.Email) {
			continue
		}
		filtered = append(filtered, u)
	}

	slices.SortStableFunc(filtered, func(a, b model.User) int {
		if params.SortDesc {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}

	users := make([]*model.User, 0, limit)
	for i := params.Offset; i < uint64(len(filtered)) && uint64(len(users)) < limit; i++ {
		u := filtered[i]
		users = append(users, &u)
	}

	return users, nil
}

func (r *userSnapshotRepository) CountUsers(ctx context.Context) (int, error) {
	users, err := r.users.ReadAll(ctx)
	if err != nil {
		return 0, err
	}

	return len(users), nil
}
