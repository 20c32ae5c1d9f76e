package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rl1809/commerce-backend/internal/core/domain"
	"github.com/rl1809/commerce-backend/internal/port"
)

// ProductService is catalog CRUD. Mutations require an admin or seller
// account: admins may touch any product, sellers only the ones they
// created. Every write invalidates the read cache.
type ProductService struct {
	products port.ProductRepository
	cache    port.ProductCache
	roles    port.RoleLookup
}

func NewProductService(products port.ProductRepository, cache port.ProductCache, roles port.RoleLookup) *ProductService {
	return &ProductService{products: products, cache: cache, roles: roles}
}

func (s *ProductService) Create(ctx context.Context, creatorID, name, description string, price float64, category, imageURL string) (*domain.Product, error) {
	uid, err := primitive.ObjectIDFromHex(creatorID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if err := s.authorize(ctx, creatorID, uid); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		ImageURL:    imageURL,
		CreatedBy:   uid,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

func (s *ProductService) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Update overwrites the provided fields; empty fields keep their
// current values.
func (s *ProductService) Update(ctx context.Context, requestingUserID, productID, name, description string, price float64, category, imageURL string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.authorize(ctx, requestingUserID, product.CreatedBy); err != nil {
		return nil, err
	}

	if name != "" {
		product.Name = name
	}
	if description != "" {
		product.Description = description
	}
	if price > 0 {
		product.Price = price
	}
	if category != "" {
		product.Category = category
	}
	if imageURL != "" {
		product.ImageURL = imageURL
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, productID)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, requestingUserID, productID string) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.authorize(ctx, requestingUserID, product.CreatedBy); err != nil {
		return err
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, productID)
	return nil
}

// authorize enforces the catalog mutation policy: admins act on any
// product, sellers only on their own. creatorID is the requesting user
// for Create, where ownership is trivially satisfied.
func (s *ProductService) authorize(ctx context.Context, requestingUserID string, creatorID primitive.ObjectID) error {
	role, ok, err := s.roles.RoleOf(ctx, requestingUserID)
	if err != nil {
		return fmt.Errorf("resolve user role: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	switch role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleSeller:
		if creatorID.Hex() == requestingUserID {
			return nil
		}
	}
	return ErrPermissionDenied
}

func (s *ProductService) invalidate(ctx context.Context, productID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
}
