package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func seeded(t *testing.T) repository.Store {
	t.Helper()
	db := New()
	Seed(db)
	return db.Store()
}

func TestProductRepository_ListNewestFirst(t *testing.T) {
	store := seeded(t)

	products, err := store.Products.List(context.Background(), repository.ProductQuery{})
	require.NoError(t, err)
	require.Len(t, products, 6)
	for i := 1; i < len(products); i++ {
		assert.False(t, products[i].CreatedAt.After(products[i-1].CreatedAt))
	}
}

func TestProductRepository_ListFilters(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query repository.ProductQuery
		want  []string
	}{
		{"search is case-insensitive substring", repository.ProductQuery{Search: "KETT"}, []string{"prod-kettle"}},
		{"search matches inside words", repository.ProductQuery{Search: "ket"}, []string{"prod-kettle", "prod-jacket"}},
		{"category", repository.ProductQuery{CategoryID: "cat-clothing"}, []string{"prod-tee", "prod-jacket"}},
		{"featured", repository.ProductQuery{Featured: true}, []string{"prod-tee", "prod-kettle", "prod-headphones"}},
		{"new arrivals with limit", repository.ProductQuery{NewArrival: true, Limit: 1}, []string{"prod-tee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := store.Products.List(ctx, tt.query)
			require.NoError(t, err)
			ids := make([]string, len(products))
			for i, p := range products {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	store := seeded(t)

	p, err := store.Products.GetByID(context.Background(), "prod-speaker")
	require.NoError(t, err)
	require.NotNil(t, p.CategoryName)
	assert.Equal(t, "Electronics", *p.CategoryName)

	_, err = store.Products.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartItems_Lifecycle(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()

	cart, err := store.Carts.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	again, err := store.Carts.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	item := &domain.CartItem{CartID: cart.ID, ProductID: "prod-tee", Quantity: 2}
	require.NoError(t, store.CartItems.Create(ctx, item))
	assert.NotEmpty(t, item.ID)

	err = store.CartItems.Create(ctx, &domain.CartItem{CartID: cart.ID, ProductID: "prod-tee", Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	err = store.CartItems.Create(ctx, &domain.CartItem{CartID: cart.ID, ProductID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	require.NoError(t, store.CartItems.UpdateQuantity(ctx, cart.ID, item.ID, 7))
	items, err := store.CartItems.List(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
	assert.Equal(t, "Organic Cotton Tee", items[0].Product.Name)

	found, err := store.CartItems.FindByProduct(ctx, cart.ID, "prod-tee")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	require.NoError(t, store.CartItems.Delete(ctx, cart.ID, item.ID))
	assert.ErrorIs(t, store.CartItems.Delete(ctx, cart.ID, item.ID), apperrors.ErrNotFound)
	_, err = store.CartItems.FindByProduct(ctx, cart.ID, "prod-tee")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartItems_DeleteByCartLeavesOtherCarts(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()

	a, _ := store.Carts.GetOrCreate(ctx, "a")
	b, _ := store.Carts.GetOrCreate(ctx, "b")
	require.NoError(t, store.CartItems.Create(ctx, &domain.CartItem{CartID: a.ID, ProductID: "prod-tee", Quantity: 1}))
	require.NoError(t, store.CartItems.Create(ctx, &domain.CartItem{CartID: b.ID, ProductID: "prod-tee", Quantity: 1}))

	require.NoError(t, store.CartItems.DeleteByCart(ctx, a.ID))

	left, _ := store.CartItems.List(ctx, a.ID)
	assert.Empty(t, left)
	other, _ := store.CartItems.List(ctx, b.ID)
	assert.Len(t, other, 1)
}

func TestOrderRepository(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := New().WithClock(func() time.Time { return now })
	store := db.Store()
	ctx := context.Background()

	first := &domain.Order{UserID: "u", Total: decimal.NewFromInt(10), Items: []domain.OrderItem{{ProductID: "p", ProductName: "P", ProductPrice: decimal.NewFromInt(10), Quantity: 1}}}
	second := &domain.Order{UserID: "u", Total: decimal.NewFromInt(20)}
	require.NoError(t, store.Orders.Create(ctx, first))
	require.NoError(t, store.Orders.Create(ctx, second))
	require.NoError(t, store.Orders.Create(ctx, &domain.Order{UserID: "someone-else"}))

	assert.Equal(t, domain.OrderStatusPending, first.Status)
	assert.Equal(t, first.ID, first.Items[0].OrderID)

	orders, err := store.Orders.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Nil(t, orders[1].Items)

	got, err := store.Orders.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestUserRepository(t *testing.T) {
	store := New().Store()
	ctx := context.Background()

	u := &domain.User{Email: "ada@example.com", FullName: "Ada"}
	require.NoError(t, store.Users.Create(ctx, u))
	assert.ErrorIs(t, store.Users.Create(ctx, &domain.User{Email: "ADA@example.com"}), apperrors.ErrAlreadyExists)

	byEmail, err := store.Users.GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = store.Users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
