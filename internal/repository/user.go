package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

// UserRepository is the credential store. Lookups that find nothing return
// an error wrapping sql.ErrNoRows; Create returns ErrDuplicate for a taken email.
type UserRepository interface {
	Create(ctx context.Context, user model.User, passwordHash string) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (model.User, string, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
