package rest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// UserRepository manages the users table. Emails are stored lower-cased.
type UserRepository struct{ c *Client }

type userRow struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

func (row userRow) user() *domain.User {
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
}

// Create inserts the user. A duplicate email surfaces as ALREADY_EXISTS.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	body := userRow{
		Email:        strings.ToLower(user.Email),
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
	}
	var created []userRow
	if err := r.c.insert(ctx, "users", body, &created); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if len(created) == 0 {
		return fmt.Errorf("create user: empty representation")
	}
	user.ID = created[0].ID
	user.Email = created[0].Email
	user.CreatedAt = created[0].CreatedAt
	return nil
}

// GetByEmail looks a user up by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email", strings.ToLower(email))
}

// GetByID looks a user up by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	var row userRow
	q := url.Values{"select": {"id,email,full_name,password_hash,created_at"}, column: {eq(value)}}
	if err := r.c.getOne(ctx, "users", q, &row); err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return row.user(), nil
}
