package checkout

import (
	"errors"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/backend"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition    = errors.New("illegal transition of checkout state")
	ErrCheckoutInProgress   = errors.New("checkout already in progress for this cart")
	ErrInvalidPaymentMethod = errors.New("payment method must be card or cod")
)

// ProfileIncompleteError lists the required profile fields that are blank.
type ProfileIncompleteError struct {
	Missing []string
}

func (e *ProfileIncompleteError) Error() string {
	return "Please complete your profile before placing an order. Missing: " + strings.Join(e.Missing, ", ")
}

// OrderSubmissionError means the order could not be placed. PaymentRef is set
// when the payment went through anyway.
type OrderSubmissionError struct {
	PaymentRef string
	Err        error
}

func (e *OrderSubmissionError) Error() string {
	return "Order placement failed. " + backend.Message(e.Err)
}

func (e *OrderSubmissionError) Unwrap() error {
	return e.Err
}
