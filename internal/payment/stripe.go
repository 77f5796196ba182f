package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/paymentmethod"
)

// StripeProvider confirms intents created by the backend against Stripe.
type StripeProvider struct {
	intents paymentintent.Client
	methods paymentmethod.Client
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return NewStripeProviderWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeProviderWithBackend(secretKey string, b stripe.Backend) *StripeProvider {
	return &StripeProvider{
		intents: paymentintent.Client{B: b, Key: secretKey},
		methods: paymentmethod.Client{B: b, Key: secretKey},
	}
}

func (p *StripeProvider) Confirm(ctx context.Context, intent domain.PaymentIntent, paymentMethodID string, billing domain.Address) (string, error) {
	id, err := IntentID(intent.ClientSecret)
	if err != nil {
		return "", err
	}
	if paymentMethodID == "" {
		return "", &ProviderError{Message: "A payment method is required."}
	}

	pmParams := &stripe.PaymentMethodParams{
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(billing.Name),
			Email: stripe.String(billing.Email),
			Phone: stripe.String(billing.Phone),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(billing.Address),
				City:       stripe.String(billing.City),
				State:      stripe.String(billing.State),
				PostalCode: stripe.String(billing.Zip),
				Country:    stripe.String(billing.Country),
			},
		},
	}
	pmParams.Context = ctx
	if _, err := p.methods.Update(paymentMethodID, pmParams); err != nil {
		return "", providerError(err)
	}

	params := &stripe.PaymentIntentConfirmParams{PaymentMethod: stripe.String(paymentMethodID)}
	params.Context = ctx
	pi, err := p.intents.Confirm(id, params)
	if err != nil {
		return "", providerError(err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", &ProviderError{Message: incompleteMessage}
	}
	return pi.ID, nil
}

func providerError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return &ProviderError{Message: se.Msg}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("stripe: %w", err)
}
