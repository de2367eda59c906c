package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

type UserService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string // empty means user
}

// Create is the administrative path for adding users, including admins.
func (s *UserService) Create(ctx context.Context, actor auth.Identity, input CreateUserInput) (model.User, error) {
	if !actor.IsAdmin() {
		return model.User{}, errForbidden("only administrators can create user accounts")
	}

	role := model.RoleUser
	if input.Role != "" {
		r, err := model.ParseRole(input.Role)
		if err != nil {
			return model.User{}, invalidInput("role must be user or admin")
		}
		role = r
	}

	email := normalizeEmail(input.Email)
	if err := validateName(input.Name); err != nil {
		return model.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return model.User{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return model.User{}, err
	}

	return createUser(ctx, s.users, s.hasher, model.User{
		Name:  strings.TrimSpace(input.Name),
		Email: email,
		Role:  role,
	}, input.Password)
}

// Get returns the user when the actor is that user or an admin.
func (s *UserService) Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (model.User, error) {
	if !auth.CanAccess(actor, id, auth.ModeRead) {
		return model.User{}, errForbidden("access denied")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, internal("get user", err)
	}
	return user, nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, internal("count users", err)
	}
	return n, nil
}
