package orders

import "errors"

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrNotCancellable        = errors.New("order can no longer be cancelled")
	ErrReasonRequired        = errors.New("please select a cancellation reason")
	ErrUnknownReason         = errors.New("unknown cancellation reason")
	ErrReasonDetailsRequired = errors.New("please describe the reason for cancelling")
	ErrOTPRequired           = errors.New("please enter the OTP sent to your email")
	ErrOTPInvalid            = errors.New("OTP must be up to 6 digits")
	ErrOTPNotRequested       = errors.New("request an OTP before confirming the cancellation")
	ErrNoSession             = errors.New("no cancellation session")
)
