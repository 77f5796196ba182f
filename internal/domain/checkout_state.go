package domain

type CheckoutState string

const (
	CheckoutStateIdle               CheckoutState = "Idle"
	CheckoutStateProfileCheck       CheckoutState = "ProfileCheck"
	CheckoutStateIntentRequested    CheckoutState = "IntentRequested"
	CheckoutStateProviderConfirming CheckoutState = "ProviderConfirming"
	CheckoutStateOrderSubmitting    CheckoutState = "OrderSubmitting"
	CheckoutStateDone               CheckoutState = "Done"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateDone
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// CanTransitionTo reports whether a checkout attempt may move from one state
// to another. Every step may fail back to Idle.
func CanTransitionTo(from, to CheckoutState) bool {
	switch from {
	case CheckoutStateIdle:
		return to == CheckoutStateProfileCheck
	case CheckoutStateProfileCheck:
		return to == CheckoutStateIntentRequested || to == CheckoutStateIdle
	case CheckoutStateIntentRequested:
		return to == CheckoutStateProviderConfirming || to == CheckoutStateIdle
	case CheckoutStateProviderConfirming:
		return to == CheckoutStateOrderSubmitting || to == CheckoutStateIdle
	case CheckoutStateOrderSubmitting:
		return to == CheckoutStateDone || to == CheckoutStateIdle
	case CheckoutStateDone:
		return false
	default:
		return false
	}
}
