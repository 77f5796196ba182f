package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const incompleteMessage = "Payment could not be completed. Please try again."

var ErrInvalidClientSecret = errors.New("invalid payment intent client secret")

// ProviderError carries the provider's own message, shown to the shopper as is.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Provider confirms a payment intent with a provider-side payment method and
// returns the payment reference.
type Provider interface {
	Confirm(ctx context.Context, intent domain.PaymentIntent, paymentMethodID string, billing domain.Address) (string, error)
}

// IntentID extracts the intent id from a client secret of the form
// "<id>_secret_<nonce>".
func IntentID(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", ErrInvalidClientSecret
	}
	return id, nil
}

// CashOnDeliveryReference is the payment reference of a cash order placed at now.
func CashOnDeliveryReference(now time.Time) string {
	return "COD-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Unavailable declines every card confirmation. It stands in when no provider
// key is configured so cash on delivery keeps working.
type Unavailable struct{}

func (Unavailable) Confirm(context.Context, domain.PaymentIntent, string, domain.Address) (string, error) {
	return "", &ProviderError{Message: "Card payments are currently unavailable."}
}
