package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// UserRepository implements repository.UserRepository. Emails are stored
// lower-cased and unique.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	const query = `
		INSERT INTO users (id, email, full_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = strings.ToLower(u.Email)

	if err := r.pool.QueryRow(ctx, query, u.ID, u.Email, u.FullName, u.PasswordHash).Scan(&u.CreatedAt); err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail looks a user up by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByEmail", "email", strings.ToLower(email))
}

// GetByID looks a user up by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByID", "id", id)
}

func (r *UserRepository) getOne(ctx context.Context, op, column, value string) (user *domain.User, err error) {
	query := `SELECT id, email, full_name, password_hash, created_at FROM users WHERE ` + column + ` = $1`

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var u domain.User
	if err := r.pool.QueryRow(ctx, query, value).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt); err != nil {
		if isNoRow(err) {
			return nil, apperrors.NotFound("user", value)
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &u, nil
}
