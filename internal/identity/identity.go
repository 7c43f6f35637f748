// Package identity signs users up and in and resolves bearer tokens to the
// signed-in identity the cart, checkout and order services act for.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// defaultBcryptCost is the bcrypt cost used for new password hashes.
const defaultBcryptCost = 12

// SignUpInput is the sign-up form.
type SignUpInput struct {
	FullName string `json:"full_name" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// SignInInput is the sign-in form.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued access token and the user it belongs to.
type Session struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Service implements sign-up, sign-in, sign-out and token authentication.
type Service struct {
	users    repository.UserRepository
	tokens   *TokenIssuer
	sessions SessionStore
	logger   *slog.Logger
	cost     int
}

// NewService creates an identity service.
func NewService(users repository.UserRepository, tokens *TokenIssuer, sessions SessionStore, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
		cost:     defaultBcryptCost,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a user and signs them in.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*Session, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, &apperrors.AppError{
				Code:    "ALREADY_EXISTS",
				Message: "this email is already registered",
				Status:  http.StatusConflict,
				Err:     apperrors.ErrAlreadyExists,
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID))
	return s.issue(user)
}

// SignIn checks credentials and issues a new access token. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, input SignInInput) (*Session, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	s.logger.InfoContext(ctx, "user signed in", slog.String("user_id", user.ID))
	return s.issue(user)
}

func (s *Service) issue(user *domain.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes token for the rest of its lifetime.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed out", slog.String("user_id", claims.UserID))
	return nil
}

// Authenticate resolves token to the identity it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: claims.UserID, Email: claims.Email, FullName: claims.FullName}, nil
}

func (s *Service) verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return nil, apperrors.Unauthorized("session has been signed out")
	}
	return claims, nil
}

// ValidateToken satisfies middleware.TokenValidator.
func (s *Service) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Me returns the signed-in user's profile.
func (s *Service) Me(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil {
		return nil, apperrors.Unauthorized("sign in required")
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// FromClaims converts request claims to an Identity. Nil claims mean an
// anonymous request and yield a nil Identity.
func FromClaims(c *middleware.Claims) *domain.Identity {
	if c == nil {
		return nil
	}
	return &domain.Identity{UserID: c.UserID, Email: c.Email}
}

// FromContext returns the identity of the request in ctx, or nil.
func FromContext(ctx context.Context) *domain.Identity {
	return FromClaims(middleware.ClaimsFromContext(ctx))
}
