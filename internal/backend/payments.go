package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// CreatePayment asks the backend for a payment intent. The returned amount
// is the backend's; it falls back to the requested one when omitted.
func (c *Client) CreatePayment(ctx context.Context, token string, amount decimal.Decimal, currency string) (domain.PaymentIntent, error) {
	var resp createPaymentResponse
	req := createPaymentRequest{Amount: number(amount), Currency: currency}
	if err := c.do(ctx, http.MethodPost, "payments/create-payment", token, req, &resp); err != nil {
		return domain.PaymentIntent{}, err
	}
	if resp.ClientSecret == "" {
		return domain.PaymentIntent{}, fmt.Errorf("%w: payment intent without client secret", ErrMalformed)
	}

	intent := domain.PaymentIntent{ClientSecret: resp.ClientSecret, Amount: amount}
	if resp.Amount != nil {
		intent.Amount = resp.Amount.dec()
	}
	return intent, nil
}
