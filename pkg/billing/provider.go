package billing

import "context"

// BillingProvider defines the provider calls this package depends on.
// Implementations should use the official provider SDK and map its types
// into the provider-neutral structs below.
type BillingProvider interface {
	// CreateCheckoutSession creates a hosted checkout session for a new subscription.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// GetSubscription retrieves the live subscription.
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)

	// UpdateSubscription applies a change to the live subscription and returns its new state.
	UpdateSubscription(ctx context.Context, subscriptionID string, upd SubscriptionUpdate) (*ProviderSubscription, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string            // Provider's price identifier
	Email      string            // Pre-filled billing email
	Metadata   map[string]string // Echoed back in the checkout completion event
	SuccessURL string            // Redirect after successful payment
	CancelURL  string            // Redirect if the payer cancels
}

// CheckoutSession represents a hosted checkout session.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ProviderSubscription is the provider-neutral view of a live subscription.
type ProviderSubscription struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	CancelAtPeriodEnd bool               `json:"cancelAtPeriodEnd"`
	Items             []SubscriptionItem `json:"items"`
}

// SubscriptionItem is a single billable item of a subscription.
type SubscriptionItem struct {
	ID      string `json:"id"`
	PriceID string `json:"priceId"`
}

// SubscriptionUpdate describes a change to a live subscription.
// ItemID and PriceID are applied together and only when both are set.
type SubscriptionUpdate struct {
	ItemID            string
	PriceID           string
	CancelAtPeriodEnd bool
	Prorate           bool // bill the remainder of the current period on a price swap
}
