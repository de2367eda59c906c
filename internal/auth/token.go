// Package auth issues and verifies identity tokens and decides access.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

// ErrInvalidToken covers every verification failure: bad signature,
// expiry, issuer or audience mismatch, malformed subject or role.
var ErrInvalidToken = errors.New("invalid or expired token")

var signingMethod = jwt.SigningMethodHS256

// Identity is the verified caller carried through a request.
type Identity struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Authority is stateless: any instance holding the same config issues and
// accepts the same tokens.
type Authority struct {
	cfg TokenConfig
	now func() time.Time
}

func NewAuthority(cfg TokenConfig) (*Authority, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("auth: signing secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("auth: token lifetime must be positive")
	}
	return &Authority{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the Authority that reads time from now.
func (a *Authority) WithClock(now func() time.Time) *Authority {
	cp := *a
	cp.now = now
	return &cp
}

// Issue signs a token for the user and returns it with its expiry.
func (a *Authority) Issue(user model.User) (string, time.Time, error) {
	issuedAt := a.now()
	expiresAt := issuedAt.Add(a.cfg.TTL)

	claims := Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    a.cfg.Issuer,
			Audience:  jwt.ClaimStrings{a.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(a.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (a *Authority) Verify(tokenStr string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		return a.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithAudience(a.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return Identity{ID: id, Email: claims.Email, Role: role}, nil
}
