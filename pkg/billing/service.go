package billing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/stripesync/pkg/logger"
	"github.com/dmitrymomot/stripesync/pkg/validator"
)

// Service defines the synchronous subscription actions.
type Service interface {
	// Plan changes and cancellation
	ChangePlan(ctx context.Context, userID, newPlan string) (*ProviderSubscription, error)
	Cancel(ctx context.Context, userID string) (*ProviderSubscription, error)

	// Checkout
	CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)

	// Profile queries and provisioning
	SubscriptionStatus(ctx context.Context, userID string) (*Profile, error)
	IsActive(ctx context.Context, userID string) (bool, error)
	EnsureProfile(ctx context.Context, userID string) (*Profile, error)
}

// maxUserIDLength bounds ids carried in provider metadata and the profiles table.
const maxUserIDLength = 255

// CheckoutInput is the payer-supplied data for a new subscription.
type CheckoutInput struct {
	Plan   string `json:"planType"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type service struct {
	provider BillingProvider
	store    ProfileStore
	catalog  Catalog
	baseURL  string
	logger   *slog.Logger
}

// NewService creates a new Service with the given dependencies.
// Panics if provider or store is nil.
func NewService(provider BillingProvider, store ProfileStore, catalog Catalog, opts ...ServiceOption) Service {
	if provider == nil {
		panic("billing: BillingProvider is required")
	}
	if store == nil {
		panic("billing: ProfileStore is required")
	}

	s := &service{
		provider: provider,
		store:    store,
		catalog:  catalog,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChangePlan swaps the price of the caller's subscription to newPlan with prorated
// billing and clears any pending cancellation. The profile is written only after
// the provider confirms the change.
func (s *service) ChangePlan(ctx context.Context, userID, newPlan string) (*ProviderSubscription, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	plan, err := ParsePlan(newPlan)
	if err != nil {
		return nil, err
	}
	priceID, err := s.catalog.PriceID(plan)
	if err != nil {
		return nil, errors.Join(ErrInvalidPlan, err)
	}

	log := s.logger.With(logger.Component("billing"), logger.UserID(userID))

	subID, err := s.subscriptionIDFor(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return nil, err
		}
		log.ErrorContext(ctx, "plan change: profile lookup failed", logger.Error(err))
		return nil, errors.Join(ErrPlanChangeFailed, err)
	}

	current, err := s.provider.GetSubscription(ctx, subID)
	if err != nil {
		log.ErrorContext(ctx, "plan change: retrieve subscription failed",
			logger.SubscriptionID(subID),
			logger.Error(err))
		return nil, errors.Join(ErrPlanChangeFailed, err)
	}
	if len(current.Items) == 0 || current.Items[0].ID == "" {
		return nil, ErrSubscriptionItemNotFound
	}

	updated, err := s.provider.UpdateSubscription(ctx, subID, SubscriptionUpdate{
		ItemID:            current.Items[0].ID,
		PriceID:           priceID,
		CancelAtPeriodEnd: false,
		Prorate:           true,
	})
	if err != nil {
		log.ErrorContext(ctx, "plan change: update subscription failed",
			logger.SubscriptionID(subID),
			logger.Error(err))
		return nil, errors.Join(ErrPlanChangeFailed, err)
	}

	if err := s.store.UpdateState(ctx, userID, ActiveState(updated.ID, planPtr(plan))); err != nil {
		log.ErrorContext(ctx, "plan change: profile update failed",
			logger.SubscriptionID(updated.ID),
			logger.Error(err))
		return nil, errors.Join(ErrPlanChangeFailed, err)
	}

	log.InfoContext(ctx, "subscription plan changed",
		logger.SubscriptionID(updated.ID),
		slog.String("plan", plan.String()))
	return updated, nil
}

// Cancel schedules the caller's subscription for cancellation at period end and
// clears the local subscription fields immediately.
func (s *service) Cancel(ctx context.Context, userID string) (*ProviderSubscription, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	log := s.logger.With(logger.Component("billing"), logger.UserID(userID))

	subID, err := s.subscriptionIDFor(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return nil, err
		}
		log.ErrorContext(ctx, "unsubscribe: profile lookup failed", logger.Error(err))
		return nil, errors.Join(ErrUnsubscribeFailed, err)
	}

	canceled, err := s.provider.UpdateSubscription(ctx, subID, SubscriptionUpdate{CancelAtPeriodEnd: true})
	if err != nil {
		log.ErrorContext(ctx, "unsubscribe: provider update failed",
			logger.SubscriptionID(subID),
			logger.Error(err))
		return nil, errors.Join(ErrUnsubscribeFailed, err)
	}

	// The subscription_deleted event arrives at period end and revokes again;
	// both writes converge on the same state.
	if err := s.store.UpdateState(ctx, userID, RevokedState()); err != nil {
		log.ErrorContext(ctx, "unsubscribe: profile update failed",
			logger.SubscriptionID(subID),
			logger.Error(err))
		return nil, errors.Join(ErrUnsubscribeFailed, err)
	}

	log.InfoContext(ctx, "subscription scheduled for cancellation", logger.SubscriptionID(subID))
	return canceled, nil
}

// CreateCheckout starts a hosted checkout for the plan. The user id and plan label
// travel in the session metadata and come back with the checkout completion event.
func (s *service) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	in.Plan = strings.TrimSpace(in.Plan)
	in.UserID = strings.TrimSpace(in.UserID)
	in.Email = strings.TrimSpace(in.Email)

	if err := validator.Apply(
		validator.Required("planType", in.Plan),
		validator.Required("userId", in.UserID),
		validator.Required("email", in.Email),
		validator.MaxLen("userId", in.UserID, maxUserIDLength),
		validator.ValidEmail("email", in.Email),
		validator.InListString("planType", in.Plan, planLabels()),
	); err != nil {
		return nil, err
	}

	priceID, err := s.catalog.PriceID(Plan(in.Plan))
	if err != nil {
		return nil, errors.Join(ErrInvalidPlan, err)
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		PriceID: priceID,
		Email:   in.Email,
		Metadata: map[string]string{
			MetadataUserID:   in.UserID,
			MetadataPlanType: in.Plan,
		},
		SuccessURL: s.baseURL + "/?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/subscribe",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session creation failed",
			logger.Component("billing"),
			logger.UserID(in.UserID),
			logger.Error(err))
		return nil, errors.Join(ErrCheckoutFailed, err)
	}

	return sess, nil
}

// SubscriptionStatus returns the caller's profile.
func (s *service) SubscriptionStatus(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	p, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrStore, err)
	}
	return p, nil
}

// IsActive reports whether the user has paid access. Unknown users are inactive.
func (s *service) IsActive(ctx context.Context, userID string) (bool, error) {
	p, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return false, nil
		}
		return false, errors.Join(ErrStore, err)
	}
	return p.SubscriptionActive, nil
}

// EnsureProfile provisions the caller's profile if it does not exist yet.
func (s *service) EnsureProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	p, err := s.store.Create(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return p, nil
}

func (s *service) subscriptionIDFor(ctx context.Context, userID string) (string, error) {
	p, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "", ErrNoActiveSubscription
		}
		return "", err
	}
	if !p.HasSubscription() {
		return "", ErrNoActiveSubscription
	}
	return *p.StripeSubscriptionID, nil
}

func planLabels() []string {
	labels := make([]string, len(Plans))
	for i, p := range Plans {
		labels[i] = p.String()
	}
	return labels
}
