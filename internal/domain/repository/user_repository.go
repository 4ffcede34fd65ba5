package repository

import (
	"context"
	"fmt"
	"sort"

	"guardx/internal/common"
	"guardx/internal/common/security"
	"guardx/internal/domain/model"
	"guardx/internal/platform/config"
)

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// staticUserRepository is the fixed two-account credential table. It is
// built once at startup and never mutated.
type staticUserRepository struct {
	users map[string]model.User // keyed by user type
}

// NewStaticUserRepository builds the credential table from configuration.
// Plaintext passwords are hashed here; a configured hash takes precedence.
func NewStaticUserRepository(cfg *config.Config) (UserRepository, error) {
	admin, err := newUser("admin", cfg.Admin, model.RoleAdmin, model.ClearanceTopSecret, "CYBER_WARFARE_DIVISION", cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	operator, err := newUser("operator", cfg.Operator, model.RoleOperator, model.ClearanceSecret, "SURVEILLANCE_OPERATIONS", cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	if admin.Username == operator.Username {
		return nil, fmt.Errorf("admin and operator share username %q: %w", admin.Username, common.ErrValidation)
	}
	return &staticUserRepository{users: map[string]model.User{
		admin.UserType:    admin,
		operator.UserType: operator,
	}}, nil
}

func newUser(userType string, acct config.Account, role string, clearance model.Clearance, unit string, cost int) (model.User, error) {
	if acct.Username == "" {
		return model.User{}, fmt.Errorf("%s username is empty: %w", userType, common.ErrValidation)
	}
	hash := acct.PasswordHash
	if hash == "" {
		var err error
		hash, err = security.HashPassword(acct.Password, cost)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to hash %s password: %w", userType, err)
		}
	}
	return model.User{
		Username:       acct.Username,
		Email:          acct.Email,
		FullName:       acct.FullName,
		HashedPassword: hash,
		Role:           role,
		Clearance:      clearance,
		Unit:           unit,
		UserType:       userType,
	}, nil
}

func (r *staticUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, common.ErrNotFound
}

// List returns the accounts ordered by user type.
func (r *staticUserRepository) List(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserType < users[j].UserType })
	return users, nil
}
