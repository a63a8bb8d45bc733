// Package auth is the portal's identity provider: password accounts, signed
// bearer tokens and the admin role check.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"study-portal/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository stores accounts and admin roles.
type UserRepository interface {
	// InsertUser returns domain.ErrConflict when the email is taken.
	InsertUser(ctx context.Context, user domain.User) error
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	FindAdmin(ctx context.Context, userID string) (domain.AdminUser, error)
}

// TokenDenylist remembers signed-out tokens until they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Options configures token signing and hashing.
type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Session is returned by sign-in and sign-up.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      domain.Identity `json:"user"`
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type credentials struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6,max=72"`
	DisplayName string `validate:"max=80"`
}

type Service struct {
	users    UserRepository
	denylist TokenDenylist
	secret   []byte
	ttl      time.Duration
	cost     int
	validate *validator.Validate
	now      func() time.Time
}

func NewService(users UserRepository, denylist TokenDenylist, opts Options) (*Service, error) {
	if len(opts.Secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		denylist: denylist,
		secret:   []byte(opts.Secret),
		ttl:      opts.TokenTTL,
		cost:     opts.BcryptCost,
		validate: validator.New(),
		now:      time.Now,
	}, nil
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	in := credentials{
		Email:       normalizeEmail(email),
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	}
	if err := s.validate.Struct(in); err != nil {
		return Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
		CreatedAt:    s.now(),
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return Session{}, domain.ErrEmailTaken
		}
		return Session{}, domain.Remote("create user", err)
	}
	return s.issue(user)
}

// SignIn checks the password and returns a fresh token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, domain.Remote("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// SignOut revokes token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	return s.denylist.Revoke(ctx, c.ID, c.ExpiresAt.Time)
}

// CurrentUser resolves a bearer token to the signed-in identity.
func (s *Service) CurrentUser(ctx context.Context, token string) (domain.Identity, error) {
	c, err := s.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	revoked, err := s.denylist.IsRevoked(ctx, c.ID)
	if err != nil {
		return domain.Identity{}, domain.Remote("check token", err)
	}
	if revoked {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return domain.Identity{ID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

// IsAdmin reports whether userID holds an admin role.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	_, err := s.users.FindAdmin(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.Remote("find admin", err)
	}
	return true, nil
}

func (s *Service) issue(user domain.User) (Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Name:  user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{
		Token:     signed,
		ExpiresAt: expires,
		User:      domain.Identity{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || c.Subject == "" || c.ExpiresAt == nil {
		return nil, domain.ErrInvalidToken
	}
	return c, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
