package billing

import (
	"context"
	"time"
)

// Profile is the internal record tracking a user's subscription state.
// Exactly one profile exists per user; it is provisioned before any billing
// event referencing the user can be reconciled.
type Profile struct {
	UserID               string    `json:"userId"`
	StripeSubscriptionID *string   `json:"stripeSubscriptionId"`
	SubscriptionActive   bool      `json:"subscriptionActive"`
	SubscriptionTier     *Plan     `json:"subscriptionTier"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// HasSubscription reports whether the profile is linked to a provider subscription.
func (p *Profile) HasSubscription() bool {
	return p != nil && p.StripeSubscriptionID != nil && *p.StripeSubscriptionID != ""
}

// State returns the mutable subscription fields of the profile.
func (p *Profile) State() SubscriptionState {
	return SubscriptionState{
		StripeSubscriptionID: p.StripeSubscriptionID,
		Active:               p.SubscriptionActive,
		Tier:                 p.SubscriptionTier,
	}
}

// SubscriptionState is the unit of mutation applied to a profile.
// Writers always replace the whole state so that concurrent or repeated
// writes converge on a final state rather than accumulating deltas.
type SubscriptionState struct {
	StripeSubscriptionID *string
	Active               bool
	Tier                 *Plan
}

// ActiveState links the profile to subID and grants paid access.
// A nil tier is stored when the plan label is unknown.
func ActiveState(subID string, tier *Plan) SubscriptionState {
	return SubscriptionState{
		StripeSubscriptionID: &subID,
		Active:               true,
		Tier:                 tier,
	}
}

// RevokedState clears the subscription link and revokes paid access.
func RevokedState() SubscriptionState {
	return SubscriptionState{}
}

// ProfileStore persists profiles keyed by user ID, with a secondary unique
// key on the provider subscription ID.
type ProfileStore interface {
	// FindByUserID returns ErrProfileNotFound if no profile exists for the user.
	FindByUserID(ctx context.Context, userID string) (*Profile, error)

	// FindBySubscriptionID looks a profile up by its provider subscription ID.
	// Returns ErrProfileNotFound if no profile is linked to the subscription.
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Profile, error)

	// UpdateState atomically replaces the subscription fields of the user's profile.
	// Returns ErrProfileNotFound if the profile does not exist and
	// ErrDuplicateSubscription if the subscription ID is linked to another profile.
	UpdateState(ctx context.Context, userID string, state SubscriptionState) error

	// Create provisions an empty profile for the user. It is idempotent and
	// returns the existing profile when one is already present.
	Create(ctx context.Context, userID string) (*Profile, error)
}

func planPtr(p Plan) *Plan {
	return &p
}
