package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PriceWeek     string `env:"STRIPE_PRICE_WEEK"`
	PriceMonth    string `env:"STRIPE_PRICE_MONTH"`
	PriceYear     string `env:"STRIPE_PRICE_YEAR"`
}

// Catalog builds the plan catalog from the configured price identifiers.
func (c StripeConfig) Catalog() Catalog {
	return NewCatalog(c.PriceWeek, c.PriceMonth, c.PriceYear)
}

// StripeProvider implements BillingProvider on top of the Stripe API client.
// The client is owned by the provider; no package-level API key is set.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a Stripe billing provider.
// Backends may be nil; tests pass backends pointing at a local server.
func NewStripeProvider(secretKey string, backends *stripe.Backends) (*StripeProvider, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, ErrMissingAPIKey
	}
	return &StripeProvider{api: client.New(secretKey, backends)}, nil
}

// CreateCheckoutSession creates a subscription-mode hosted checkout session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("create checkout session: %w", err))
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSubscription retrieves a subscription by ID.
func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	if subscriptionID == "" {
		return nil, ErrMissingSubscriptionID
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err))
	}
	return toProviderSubscription(sub), nil
}

// UpdateSubscription applies upd to the subscription.
// CancelAtPeriodEnd is always sent so a price swap also clears a pending cancellation.
func (p *StripeProvider) UpdateSubscription(ctx context.Context, subscriptionID string, upd SubscriptionUpdate) (*ProviderSubscription, error) {
	if subscriptionID == "" {
		return nil, ErrMissingSubscriptionID
	}

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(upd.CancelAtPeriodEnd),
	}
	if upd.ItemID != "" && upd.PriceID != "" {
		params.Items = []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(upd.ItemID),
				Price: stripe.String(upd.PriceID),
			},
		}
	}
	if upd.Prorate {
		params.ProrationBehavior = stripe.String("create_prorations")
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("update subscription %s: %w", subscriptionID, err))
	}
	return toProviderSubscription(sub), nil
}

func toProviderSubscription(sub *stripe.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items == nil {
		return out
	}
	for _, item := range sub.Items.Data {
		if item == nil {
			continue
		}
		si := SubscriptionItem{ID: item.ID}
		if item.Price != nil {
			si.PriceID = item.Price.ID
		}
		out.Items = append(out.Items, si)
	}
	return out
}
