package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCOD  PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCOD
}

// PaymentIntent is consumed exactly once by a checkout attempt.
type PaymentIntent struct {
	ClientSecret string
	Amount       decimal.Decimal
}
