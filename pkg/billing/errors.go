package billing

import "errors"

var (
	// Webhook intake
	ErrVerificationFailed = errors.New("webhook signature verification failed")
	ErrMalformedEvent     = errors.New("malformed billing event payload")
	ErrMissingSecret      = errors.New("webhook signing secret is required")

	// Profile store
	ErrProfileNotFound       = errors.New("profile not found")
	ErrDuplicateSubscription = errors.New("subscription already linked to another profile")
	ErrStore                 = errors.New("profile store failure")

	// Actions
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInvalidPlan              = errors.New("invalid subscription plan")
	ErrUnknownPlan              = errors.New("no price configured for plan")
	ErrNoActiveSubscription     = errors.New("no active subscription found")
	ErrSubscriptionItemNotFound = errors.New("subscription item not found")
	ErrPlanChangeFailed         = errors.New("failed to change subscription plan")
	ErrUnsubscribeFailed        = errors.New("failed to unsubscribe")
	ErrCheckoutFailed           = errors.New("failed to create checkout session")

	// Provider
	ErrProvider              = errors.New("billing provider error")
	ErrMissingAPIKey         = errors.New("billing provider API key is required")
	ErrNoCheckoutURL         = errors.New("no checkout URL returned from provider")
	ErrMissingPriceID        = errors.New("price ID is required")
	ErrMissingSubscriptionID = errors.New("subscription ID is required")
)
