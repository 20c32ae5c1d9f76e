package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/commerce-backend/internal/core/domain"
	"github.com/rl1809/commerce-backend/internal/port"
)

// UserService is account CRUD. Credentials never pass through here;
// token issuance belongs to the identity service.
type UserService struct {
	users port.UserRepository
}

func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Create(ctx context.Context, username, email, userType string) (*domain.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	user := &domain.User{
		Username:  username,
		Email:     email,
		UserType:  userType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update overwrites the provided fields; empty fields keep their
// current values.
func (s *UserService) Update(ctx context.Context, userID, username, email, userType string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if userType != "" {
		user.UserType = userType
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.users.Delete(ctx, userID)
}
