// Package postgres implements the repositories on PostgreSQL through pgx.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
)

// NewStore returns the repositories backed by db.
func NewStore(db database.DBTX) repository.Store {
	return repository.Store{
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Carts:      NewCartRepository(db),
		CartItems:  NewCartItemRepository(db),
		Orders:     NewOrderRepository(db),
		Users:      NewUserRepository(db),
	}
}

// SQLSTATE codes mapped to storefront errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
	invalidText         = "22P02"
)

// isNoRow reports whether err means the looked-up row does not exist. A
// malformed UUID cannot match any row either.
func isNoRow(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == invalidText
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
