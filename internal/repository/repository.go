package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductQuery is the remote filter for a product list read. Zero values
// disable the corresponding predicate.
type ProductQuery struct {
	// Search is a case-insensitive substring match on the product name.
	Search     string
	CategoryID string
	Featured   bool
	NewArrival bool
	// Limit caps the result set; zero means unlimited.
	Limit int
}

// CategoryRepository reads product categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// ProductRepository reads products. List results are ordered by creation
// time, newest first.
type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]domain.Product, error)

	// GetByID returns the product with its category name populated.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// CartRepository manages the per-user cart record.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating it on first use.
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
}

// CartItemRepository manages the items of a cart.
type CartItemRepository interface {
	// List returns the cart's items joined with their products, oldest first.
	List(ctx context.Context, cartID string) ([]domain.CartItem, error)

	// FindByProduct returns the item for productID or an ErrNotFound error.
	FindByProduct(ctx context.Context, cartID, productID string) (*domain.CartItem, error)

	Create(ctx context.Context, item *domain.CartItem) error
	UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error

	// Delete removes one item. Deleting an absent item returns ErrNotFound.
	Delete(ctx context.Context, cartID, itemID string) error

	DeleteByCart(ctx context.Context, cartID string) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	// Create inserts the order and its items as one unit.
	Create(ctx context.Context, order *domain.Order) error

	// ListByUser returns the user's orders, newest first, without items.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// GetByID returns the order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// UserRepository persists storefront users.
type UserRepository interface {
	// Create inserts a user. A duplicate email returns ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Store groups the repositories of one data backend.
type Store struct {
	Categories CategoryRepository
	Products   ProductRepository
	Carts      CartRepository
	CartItems  CartItemRepository
	Orders     OrderRepository
	Users      UserRepository
}
