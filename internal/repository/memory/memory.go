// Package memory is an in-process data backend used for development and as
// a fixture in tests. It mirrors the ordering and error semantics of the
// remote data service.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// DB holds every collection behind one lock.
type DB struct {
	mu         sync.RWMutex
	categories []domain.Category
	products   []domain.Product
	carts      map[string]domain.Cart // keyed by user ID
	items      []domain.CartItem
	orders     []domain.Order
	users      map[string]domain.User // keyed by ID
	now        func() time.Time
}

// New creates an empty DB.
func New() *DB {
	return &DB{
		carts: make(map[string]domain.Cart),
		users: make(map[string]domain.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used for created_at stamps.
func (db *DB) WithClock(now func() time.Time) *DB {
	db.now = now
	return db
}

// AddCategories appends categories in the given order.
func (db *DB) AddCategories(cs ...domain.Category) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.categories = append(db.categories, cs...)
}

// AddProducts appends products. Missing IDs and creation times are filled in.
func (db *DB) AddProducts(ps ...domain.Product) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range ps {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = db.now()
		}
		db.products = append(db.products, p)
	}
}

// Store returns the repositories backed by db.
func (db *DB) Store() repository.Store {
	return repository.Store{
		Categories: &CategoryRepository{db: db},
		Products:   &ProductRepository{db: db},
		Carts:      &CartRepository{db: db},
		CartItems:  &CartItemRepository{db: db},
		Orders:     &OrderRepository{db: db},
		Users:      &UserRepository{db: db},
	}
}

func (db *DB) productByID(id string) (domain.Product, bool) {
	for _, p := range db.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (db *DB) categoryName(id *string) *string {
	if id == nil {
		return nil
	}
	for _, c := range db.categories {
		if c.ID == *id {
			name := c.Name
			return &name
		}
	}
	return nil
}

// CategoryRepository is the in-memory repository.CategoryRepository.
type CategoryRepository struct{ db *DB }

// List returns categories ordered by name.
func (r *CategoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.Category, len(r.db.categories))
	copy(out, r.db.categories)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ProductRepository is the in-memory repository.ProductRepository.
type ProductRepository struct{ db *DB }

// List filters products and returns them newest first.
func (r *ProductRepository) List(_ context.Context, q repository.ProductQuery) ([]domain.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(q.Search)
	out := make([]domain.Product, 0)
	for _, p := range r.db.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if q.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != q.CategoryID) {
			continue
		}
		if q.Featured && !p.IsFeatured {
			continue
		}
		if q.NewArrival && !p.IsNewArrival {
			continue
		}
		p.CategoryName = nil
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// GetByID returns the product with its category name.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.productByID(id)
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	p.CategoryName = r.db.categoryName(p.CategoryID)
	return &p, nil
}

// CartRepository is the in-memory repository.CartRepository.
type CartRepository struct{ db *DB }

// GetOrCreate returns the user's cart, creating it on first use.
func (r *CartRepository) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if c, ok := r.db.carts[userID]; ok {
		return &c, nil
	}
	c := domain.Cart{ID: uuid.New().String(), UserID: userID, CreatedAt: r.db.now()}
	r.db.carts[userID] = c
	return &c, nil
}

// CartItemRepository is the in-memory repository.CartItemRepository.
type CartItemRepository struct{ db *DB }

// List returns the cart's items joined with their products, oldest first.
func (r *CartItemRepository) List(_ context.Context, cartID string) ([]domain.CartItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.CartItem, 0)
	for _, item := range r.db.items {
		if item.CartID != cartID {
			continue
		}
		if p, ok := r.db.productByID(item.ProductID); ok {
			item.Product = p
		}
		out = append(out, item)
	}
	return out, nil
}

// FindByProduct returns the cart's item for productID.
func (r *CartItemRepository) FindByProduct(_ context.Context, cartID, productID string) (*domain.CartItem, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, item := range r.db.items {
		if item.CartID == cartID && item.ProductID == productID {
			return &item, nil
		}
	}
	return nil, apperrors.NotFound("cart item", productID)
}

// Create inserts an item. The (cart, product) pair must be unique.
func (r *CartItemRepository) Create(_ context.Context, item *domain.CartItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.productByID(item.ProductID); !ok {
		return apperrors.InvalidInput("product " + item.ProductID + " does not exist")
	}
	for _, existing := range r.db.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			return apperrors.AlreadyExists("cart item", "product_id", item.ProductID)
		}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = r.db.now()
	stored := *item
	stored.Product = domain.Product{}
	r.db.items = append(r.db.items, stored)
	return nil
}

// UpdateQuantity sets the stored quantity of one item.
func (r *CartItemRepository) UpdateQuantity(_ context.Context, cartID, itemID string, quantity int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range r.db.items {
		if r.db.items[i].CartID == cartID && r.db.items[i].ID == itemID {
			r.db.items[i].Quantity = quantity
			return nil
		}
	}
	return apperrors.NotFound("cart item", itemID)
}

// Delete removes one item.
func (r *CartItemRepository) Delete(_ context.Context, cartID, itemID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range r.db.items {
		if r.db.items[i].CartID == cartID && r.db.items[i].ID == itemID {
			r.db.items = append(r.db.items[:i], r.db.items[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("cart item", itemID)
}

// DeleteByCart removes every item of the cart.
func (r *CartItemRepository) DeleteByCart(_ context.Context, cartID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	kept := r.db.items[:0]
	for _, item := range r.db.items {
		if item.CartID != cartID {
			kept = append(kept, item)
		}
	}
	r.db.items = kept
	return nil
}

// OrderRepository is the in-memory repository.OrderRepository.
type OrderRepository struct{ db *DB }

// Create stores the order and its items.
func (r *OrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	order.CreatedAt = r.db.now()
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}

	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.db.orders = append(r.db.orders, stored)
	return nil
}

// ListByUser returns the user's orders newest first, without items.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, o := range r.db.orders {
		if o.UserID == userID {
			o.Items = nil
			out = append(out, o)
		}
	}
	// Later inserts win ties so equal timestamps still list newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetByID returns the order with its items.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, o := range r.db.orders {
		if o.ID == id {
			o.Items = append([]domain.OrderItem(nil), o.Items...)
			return &o, nil
		}
	}
	return nil, apperrors.NotFound("order", id)
}

// UserRepository is the in-memory repository.UserRepository.
type UserRepository struct{ db *DB }

// Create stores a user. Emails are compared case-insensitively.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = r.db.now()
	r.db.users[user.ID] = *user
	return nil
}

// GetByEmail looks a user up by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

// GetByID looks a user up by ID.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &u, nil
}
