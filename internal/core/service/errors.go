package service

import "errors"

// Caller-facing failures. The handler layer maps these to non-500
// responses with errors.Is; anything else is an internal error.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrItemNotFound     = errors.New("item not found in cart")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrPermissionDenied = errors.New("access denied")
	ErrInvalidStatus    = errors.New("status not allowed here")
	ErrOrderClosed      = errors.New("order is in a terminal status")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
)
