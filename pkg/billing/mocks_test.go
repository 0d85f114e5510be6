package billing_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/stripesync/pkg/billing"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billing.ProviderSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ProviderSubscription), args.Error(1)
}

func (m *mockProvider) UpdateSubscription(ctx context.Context, subscriptionID string, upd billing.SubscriptionUpdate) (*billing.ProviderSubscription, error) {
	args := m.Called(ctx, subscriptionID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ProviderSubscription), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByUserID(ctx context.Context, userID string) (*billing.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Profile), args.Error(1)
}

func (m *mockStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*billing.Profile, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Profile), args.Error(1)
}

func (m *mockStore) UpdateState(ctx context.Context, userID string, state billing.SubscriptionState) error {
	args := m.Called(ctx, userID, state)
	return args.Error(0)
}

func (m *mockStore) Create(ctx context.Context, userID string) (*billing.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Profile), args.Error(1)
}

type mockDeduper struct {
	mock.Mock
}

func (m *mockDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeduper) MarkProcessed(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

// staticVerifier returns a fixed event or error without checking signatures.
type staticVerifier struct {
	evt billing.Event
	err error
}

func (v staticVerifier) Verify(context.Context, []byte, string) (billing.Event, error) {
	return v.evt, v.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func planPtr(p billing.Plan) *billing.Plan { return &p }

func testCatalog() billing.Catalog {
	return billing.NewCatalog("price_week", "price_month", "price_year")
}

// subscribedProfile returns a profile linked to subID on the given plan.
func subscribedProfile(userID, subID string, plan billing.Plan) billing.Profile {
	return billing.Profile{
		UserID:               userID,
		StripeSubscriptionID: strPtr(subID),
		SubscriptionActive:   true,
		SubscriptionTier:     planPtr(plan),
	}
}
