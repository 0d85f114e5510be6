package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/validator"
)

func newTestService(provider billing.BillingProvider, store billing.ProfileStore) billing.Service {
	return billing.NewService(provider, store, testCatalog(),
		billing.WithLogger(discardLogger()),
		billing.WithBaseURL("https://app.example.com/"),
	)
}

func TestService_ChangePlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("swaps price with proration and mirrors the result", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore(subscribedProfile("u1", "sub_1", billing.PlanMonth))
		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&billing.ProviderSubscription{
			ID:    "sub_1",
			Items: []billing.SubscriptionItem{{ID: "si_1", PriceID: "price_month"}},
		}, nil)
		provider.On("UpdateSubscription", mock.Anything, "sub_1", billing.SubscriptionUpdate{
			ItemID:            "si_1",
			PriceID:           "price_year",
			CancelAtPeriodEnd: false,
			Prorate:           true,
		}).Return(&billing.ProviderSubscription{
			ID:     "sub_1",
			Status: "active",
			Items:  []billing.SubscriptionItem{{ID: "si_1", PriceID: "price_year"}},
		}, nil)

		sub, err := newTestService(provider, store).ChangePlan(ctx, "u1", "year")
		require.NoError(t, err)
		assert.Equal(t, "price_year", sub.Items[0].PriceID)

		p, err := store.FindByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, billing.PlanYear, *p.SubscriptionTier)
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, "sub_1", *p.StripeSubscriptionID)
		provider.AssertExpectations(t)
	})

	t.Run("requires identity", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		_, err := newTestService(provider, billing.NewMemoryStore()).ChangePlan(ctx, "", "year")
		assert.ErrorIs(t, err, billing.ErrUnauthorized)
		provider.AssertExpectations(t)
	})

	t.Run("rejects missing or unknown plan", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		svc := newTestService(provider, billing.NewMemoryStore(subscribedProfile("u1", "sub_1", billing.PlanMonth)))

		_, err := svc.ChangePlan(ctx, "u1", "")
		assert.ErrorIs(t, err, billing.ErrInvalidPlan)
		_, err = svc.ChangePlan(ctx, "u1", "forever")
		assert.ErrorIs(t, err, billing.ErrInvalidPlan)
		provider.AssertExpectations(t)
	})

	t.Run("plan without configured price is invalid", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		svc := billing.NewService(provider, billing.NewMemoryStore(), billing.NewCatalog("", "price_month", ""),
			billing.WithLogger(discardLogger()))

		_, err := svc.ChangePlan(ctx, "u1", "week")
		assert.ErrorIs(t, err, billing.ErrInvalidPlan)
	})

	t.Run("no subscription issues no provider call", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		svc := newTestService(provider, billing.NewMemoryStore(billing.Profile{UserID: "u1"}))

		_, err := svc.ChangePlan(ctx, "u1", "year")
		assert.ErrorIs(t, err, billing.ErrNoActiveSubscription)

		_, err = svc.ChangePlan(ctx, "ghost", "year")
		assert.ErrorIs(t, err, billing.ErrNoActiveSubscription)

		provider.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
		provider.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("subscription without items", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&billing.ProviderSubscription{ID: "sub_1"}, nil)

		svc := newTestService(provider, billing.NewMemoryStore(subscribedProfile("u1", "sub_1", billing.PlanMonth)))
		_, err := svc.ChangePlan(ctx, "u1", "week")
		assert.ErrorIs(t, err, billing.ErrSubscriptionItemNotFound)
		provider.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure leaves profile untouched", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore(subscribedProfile("u1", "sub_1", billing.PlanMonth))
		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&billing.ProviderSubscription{
			ID:    "sub_1",
			Items: []billing.SubscriptionItem{{ID: "si_1"}},
		}, nil)
		provider.On("UpdateSubscription", mock.Anything, "sub_1", mock.Anything).Return(nil, billing.ErrProvider)

		_, err := newTestService(provider, store).ChangePlan(ctx, "u1", "week")
		assert.ErrorIs(t, err, billing.ErrPlanChangeFailed)

		p, err := store.FindByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, billing.PlanMonth, *p.SubscriptionTier)
	})

	t.Run("store failure after provider success", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		profile := subscribedProfile("u1", "sub_1", billing.PlanMonth)
		store.On("FindByUserID", mock.Anything, "u1").Return(&profile, nil)
		store.On("UpdateState", mock.Anything, "u1", mock.Anything).Return(errors.New("disk full"))

		provider := &mockProvider{}
		provider.On("GetSubscription", mock.Anything, "sub_1").Return(&billing.ProviderSubscription{
			ID:    "sub_1",
			Items: []billing.SubscriptionItem{{ID: "si_1"}},
		}, nil)
		provider.On("UpdateSubscription", mock.Anything, "sub_1", mock.Anything).Return(&billing.ProviderSubscription{ID: "sub_1"}, nil)

		_, err := newTestService(provider, store).ChangePlan(ctx, "u1", "week")
		assert.ErrorIs(t, err, billing.ErrPlanChangeFailed)
		store.AssertExpectations(t)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cancels at period end and clears the profile", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore(subscribedProfile("u1", "sub_2", billing.PlanWeek))
		provider := &mockProvider{}
		provider.On("UpdateSubscription", mock.Anything, "sub_2", billing.SubscriptionUpdate{CancelAtPeriodEnd: true}).
			Return(&billing.ProviderSubscription{ID: "sub_2", Status: "active", CancelAtPeriodEnd: true}, nil)

		sub, err := newTestService(provider, store).Cancel(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, sub.CancelAtPeriodEnd)

		p, err := store.FindByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, p.StripeSubscriptionID)
		assert.False(t, p.SubscriptionActive)
		assert.Nil(t, p.SubscriptionTier)
		provider.AssertExpectations(t)
	})

	t.Run("requires identity and a subscription", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		svc := newTestService(provider, billing.NewMemoryStore(billing.Profile{UserID: "u1"}))

		_, err := svc.Cancel(ctx, "")
		assert.ErrorIs(t, err, billing.ErrUnauthorized)

		_, err = svc.Cancel(ctx, "u1")
		assert.ErrorIs(t, err, billing.ErrNoActiveSubscription)
		provider.AssertExpectations(t)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore(subscribedProfile("u1", "sub_2", billing.PlanWeek))
		provider := &mockProvider{}
		provider.On("UpdateSubscription", mock.Anything, "sub_2", mock.Anything).Return(nil, billing.ErrProvider)

		_, err := newTestService(provider, store).Cancel(ctx, "u1")
		assert.ErrorIs(t, err, billing.ErrUnsubscribeFailed)

		p, err := store.FindByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, p.SubscriptionActive)
	})
}

func TestService_CreateCheckout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates session with metadata and redirects", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		provider.On("CreateCheckoutSession", mock.Anything, billing.CheckoutRequest{
			PriceID: "price_month",
			Email:   "payer@example.com",
			Metadata: map[string]string{
				billing.MetadataUserID:   "u1",
				billing.MetadataPlanType: "month",
			},
			SuccessURL: "https://app.example.com/?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  "https://app.example.com/subscribe",
		}).Return(&billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil)

		sess, err := newTestService(provider, billing.NewMemoryStore()).CreateCheckout(ctx, billing.CheckoutInput{
			Plan:   "month",
			UserID: "u1",
			Email:  "payer@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/cs_1", sess.URL)
		provider.AssertExpectations(t)
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		svc := newTestService(provider, billing.NewMemoryStore())

		_, err := svc.CreateCheckout(ctx, billing.CheckoutInput{Plan: "decade", UserID: "u1"})
		require.Error(t, err)
		verrs := validator.ExtractValidationErrors(err)
		require.NotNil(t, verrs)
		assert.True(t, verrs.Has("planType"))
		assert.True(t, verrs.Has("email"))
		assert.False(t, verrs.Has("userId"))

		provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		svc := newTestService(provider, billing.NewMemoryStore())

		_, err := svc.CreateCheckout(ctx, billing.CheckoutInput{Plan: "week", UserID: "u1", Email: "not-an-email"})
		require.Error(t, err)
		assert.Equal(t, []string{"email"}, validator.ExtractValidationErrors(err).Fields())
		provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("provider failure is wrapped", func(t *testing.T) {
		t.Parallel()

		provider := &mockProvider{}
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined"))

		_, err := newTestService(provider, billing.NewMemoryStore()).CreateCheckout(ctx, billing.CheckoutInput{
			Plan: "week", UserID: "u1", Email: "payer@example.com",
		})
		assert.ErrorIs(t, err, billing.ErrCheckoutFailed)
	})
}

func TestService_Status(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := billing.NewMemoryStore(
		subscribedProfile("u1", "sub_1", billing.PlanYear),
		billing.Profile{UserID: "u2"},
	)
	svc := newTestService(&mockProvider{}, store)

	active, err := svc.IsActive(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = svc.IsActive(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = svc.IsActive(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, active)

	p, err := svc.SubscriptionStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, billing.PlanYear, *p.SubscriptionTier)

	_, err = svc.SubscriptionStatus(ctx, "ghost")
	assert.ErrorIs(t, err, billing.ErrProfileNotFound)

	_, err = svc.SubscriptionStatus(ctx, "")
	assert.ErrorIs(t, err, billing.ErrUnauthorized)
}

func TestService_EnsureProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := billing.NewMemoryStore()
	svc := newTestService(&mockProvider{}, store)

	p, err := svc.EnsureProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)

	again, err := svc.EnsureProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, again.CreatedAt)

	_, err = svc.EnsureProfile(ctx, "")
	assert.ErrorIs(t, err, billing.ErrUnauthorized)
}

func TestNewService_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { billing.NewService(nil, billing.NewMemoryStore(), testCatalog()) })
	assert.Panics(t, func() { billing.NewService(&mockProvider{}, nil, testCatalog()) })
}
