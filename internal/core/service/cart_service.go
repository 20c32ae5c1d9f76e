package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rl1809/commerce-backend/internal/core/domain"
	"github.com/rl1809/commerce-backend/internal/port"
)

// CartService keeps one cart per user and reconciles item operations
// into it: adds merge by product, removes are idempotent, updates
// match a line item by its id only.
type CartService struct {
	carts    port.CartRepository
	products port.ProductLookup
}

func NewCartService(carts port.CartRepository, products port.ProductLookup) *CartService {
	return &CartService{carts: carts, products: products}
}

// AddItem merges quantity into the existing line for productID, or
// appends a new line. The cart is created lazily on the first add.
// Adding a then b for the same product leaves the same cart as one add
// of a+b.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	_, ok, err := s.products.DisplayName(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product lookup: %w", err)
	}
	if !ok {
		return nil, ErrProductNotFound
	}

	cart, ok, err := s.carts.IncrementItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("increment item: %w", err)
	}
	if ok {
		return cart, nil
	}

	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	item := domain.CartItem{
		ID:        uuid.NewString(),
		ProductID: pid,
		Quantity:  quantity,
	}
	cart, ok, err = s.carts.PushItem(ctx, userID, item)
	if err != nil {
		return nil, fmt.Errorf("push item: %w", err)
	}
	if ok {
		return cart, nil
	}

	// Lost the insert race: a concurrent add created the line between
	// our increment and push. Merge into it instead.
	cart, ok, err = s.carts.IncrementItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("increment item after push conflict: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("cart line for product %s vanished during add", productID)
	}
	return cart, nil
}

// RemoveItem deletes the line item with itemID. A missing item is
// still a success: delete is idempotent by contract. Only a missing
// cart is an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	found, err := s.carts.RemoveItem(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if !found {
		return ErrCartNotFound
	}
	return nil
}

// UpdateItemQuantity replaces the quantity of one line item, matched
// by item id alone.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	updated, ok, err := s.carts.SetItemQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("set item quantity: %w", err)
	}
	if !ok {
		return nil, ErrItemNotFound
	}
	return updated, nil
}

func (s *CartService) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}
