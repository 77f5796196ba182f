package cart

import "errors"

var (
	ErrLineNotFound      = errors.New("cart line not found")
	ErrInsufficientStock = errors.New("Not enough stock!")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)
