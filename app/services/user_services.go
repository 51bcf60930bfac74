package services

import (
	"context"
	"errors"
	"strings"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/pkg/apperr"
	"github.com/scholarstream/scholarstream/pkg/logger"
)

type UserService struct {
	users repositories.UserRepository
	now   Clock
}

func NewUserService(users repositories.UserRepository, now Clock) *UserService {
	return &UserService{users: users, now: now}
}

// NewUser is the self-registration payload. Email and role are never taken
// from the body.
type NewUser struct {
	Name  string `json:"name"  validate:"max=120"`
	Photo string `json:"photo" validate:"omitempty,url"`
	Cover string `json:"cover" validate:"omitempty,url"`
}

// Register creates the caller's account as a Student.
func (s *UserService) Register(ctx context.Context, email string, in NewUser) (models.User, error) {
	u := models.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Photo:     in.Photo,
		Cover:     in.Cover,
		Role:      models.RoleStudent,
		CreatedAt: s.now().UTC(),
	}

	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.User{}, apperr.Conflict("User already exists")
		}
		return models.User{}, apperr.Internal(err)
	}

	logger.WithCtx(ctx).Info("user registered", "email", email)
	return u, nil
}

// FindByEmail returns nil without error when no user has email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &u, nil
}

// RoleOf reports Student for unknown emails.
func (s *UserService) RoleOf(ctx context.Context, email string) (models.Role, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return models.RoleStudent, nil
	}
	return u.Role, nil
}

// StoredRole is the role guard's lookup: it fails for unknown users
// instead of assuming Student.
func (s *UserService) StoredRole(ctx context.Context, email string) (models.Role, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *UserService) All(ctx context.Context) ([]models.User, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id string, role models.Role) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.Invalid("Invalid role")
	}
	if err := s.users.UpdateRole(ctx, oid, role); err != nil {
		return storeErr(err, "User not found")
	}

	logger.WithCtx(ctx).Info("user role changed", "user_id", id, "role", string(role))
	return nil
}

// AssignRole sets the role of the user with email, creating the account
// when it does not exist yet. Used to bootstrap the first Admin.
func (s *UserService) AssignRole(ctx context.Context, email string, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, apperr.Invalid("Invalid role")
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		u = models.User{Email: email, Role: role, CreatedAt: s.now().UTC()}
		if err := s.users.Create(ctx, &u); err != nil {
			return models.User{}, apperr.Internal(err)
		}
		return u, nil
	case err != nil:
		return models.User{}, apperr.Internal(err)
	}

	if err := s.users.UpdateRole(ctx, u.ID, role); err != nil {
		return models.User{}, storeErr(err, "User not found")
	}
	u.Role = role
	return u, nil
}

// UpdateProfile sets only the provided, non-empty fields and returns them.
func (s *UserService) UpdateProfile(ctx context.Context, email string, in models.ProfileUpdate) (models.ProfileUpdate, error) {
	p := models.ProfileUpdate{
		Name:  nonEmpty(in.Name),
		Photo: nonEmpty(in.Photo),
		Cover: nonEmpty(in.Cover),
	}
	if p.Empty() {
		return p, apperr.Invalid("Nothing to update")
	}

	if _, err := s.users.UpdateProfile(ctx, email, p); err != nil {
		return p, storeErr(err, "User not found")
	}
	return p, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	return storeErr(s.users.Delete(ctx, oid), "User not found")
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	if v := strings.TrimSpace(*s); v != "" {
		return &v
	}
	return nil
}
