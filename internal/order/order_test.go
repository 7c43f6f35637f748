package order

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/memory"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newOrder(userID, total string) *domain.Order {
	return &domain.Order{
		UserID:   userID,
		Subtotal: decimal.RequireFromString(total),
		Total:    decimal.RequireFromString(total),
		Items: []domain.OrderItem{
			{ProductID: "prod-a", ProductName: "Alpha", ProductPrice: decimal.RequireFromString(total), Quantity: 1},
		},
	}
}

func TestList_NewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db := memory.New().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	repo := db.Store().Orders
	ctx := context.Background()

	first := newOrder("user-1", "10.00")
	second := newOrder("user-1", "20.00")
	other := newOrder("user-2", "30.00")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	svc := NewService(repo, newTestLogger())
	orders, err := svc.List(ctx, &domain.Identity{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestList_Anonymous(t *testing.T) {
	svc := NewService(memory.New().Store().Orders, newTestLogger())

	_, err := svc.List(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestGet_OwnOrderIncludesItems(t *testing.T) {
	repo := memory.New().Store().Orders
	ctx := context.Background()
	o := newOrder("user-1", "12.00")
	require.NoError(t, repo.Create(ctx, o))

	svc := NewService(repo, newTestLogger())
	got, err := svc.Get(ctx, &domain.Identity{UserID: "user-1"}, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestGet_OtherUsersOrderIsNotFound(t *testing.T) {
	repo := memory.New().Store().Orders
	ctx := context.Background()
	o := newOrder("user-1", "12.00")
	require.NoError(t, repo.Create(ctx, o))

	svc := NewService(repo, newTestLogger())
	_, err := svc.Get(ctx, &domain.Identity{UserID: "user-2"}, o.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGet_Missing(t *testing.T) {
	svc := NewService(memory.New().Store().Orders, newTestLogger())

	_, err := svc.Get(context.Background(), &domain.Identity{UserID: "user-1"}, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
