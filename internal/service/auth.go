package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

type TokenIssuer interface {
	Issue(user model.User) (string, time.Time, error)
}

// AuthService handles registration and login.
type AuthService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// Register creates a user with role user. The email is checked for
// uniqueness before hashing; a concurrent duplicate still ends in ErrEmailAlreadyExists.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (model.User, error) {
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
		Role:  model.RoleUser,
	}, input.Password)
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginOutput, error) {
	email := normalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return LoginOutput{}, err
	}
	if input.Password == "" {
		return LoginOutput{}, invalidInput("password is required")
	}

	user, hash, err := s.users.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginOutput{}, ErrInvalidCredentials
		}
		return LoginOutput{}, internal("find user by email", err)
	}

	ok, err := s.hasher.Verify(input.Password, hash)
	if err != nil {
		s.logger.ErrorContext(ctx, "password verification failed", "user_id", user.ID, "error", err)
		return LoginOutput{}, ErrInvalidCredentials
	}
	if !ok {
		return LoginOutput{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return LoginOutput{}, internal("issue token", err)
	}

	return LoginOutput{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func createUser(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, user model.User, password string) (model.User, error) {
	taken, err := users.EmailExists(ctx, user.Email)
	if err != nil {
		return model.User{}, internal("check email", err)
	}
	if taken {
		return model.User{}, ErrEmailAlreadyExists
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return model.User{}, internal("hash password", err)
	}

	created, err := users.Create(ctx, user, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, ErrEmailAlreadyExists
		}
		return model.User{}, internal("create user", err)
	}
	return created, nil
}
