package port

import (
	"context"

	"github.com/rl1809/commerce-backend/internal/core/domain"
)

// Repositories return (nil, nil) when a document does not exist; the
// service layer turns that into its own not-found errors. IDs are hex
// strings at this boundary, a malformed id behaves like a missing
// document.

type OrderRepository interface {
	// Insert persists a new order and fills in its generated id.
	Insert(ctx context.Context, order *domain.Order) error

	FindByID(ctx context.Context, id string) (*domain.Order, error)

	FindAll(ctx context.Context) ([]domain.Order, error)

	// AppendStatus atomically sets the order status and pushes a
	// history entry in one document update, so entries from concurrent
	// updates all survive. Returns the updated order, or nil when the
	// order does not exist.
	AppendStatus(ctx context.Context, id string, entry domain.StatusEntry) (*domain.Order, error)
}

type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)

	// IncrementItem adds quantity to the line item holding productID.
	// ok is false when the user's cart has no such line.
	IncrementItem(ctx context.Context, userID, productID string, quantity int) (cart *domain.Cart, ok bool, err error)

	// PushItem appends a new line item, creating the cart when the user
	// has none. ok is false when another writer added a line for the
	// same product first; callers should retry with IncrementItem.
	PushItem(ctx context.Context, userID string, item domain.CartItem) (cart *domain.Cart, ok bool, err error)

	// RemoveItem pulls the line item with itemID. Removing an absent
	// item is not an error. Returns false when the user has no cart.
	RemoveItem(ctx context.Context, userID, itemID string) (bool, error)

	// SetItemQuantity replaces the quantity of the line item with
	// itemID. ok is false when no line item matches.
	SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (cart *domain.Cart, ok bool, err error)
}

type ProductRepository interface {
	Insert(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Insert(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
