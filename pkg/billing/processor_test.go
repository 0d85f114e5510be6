package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stripesync/pkg/billing"
)

func TestWebhookProcessor_Process(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("verification failure never reaches the store", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		p := billing.NewWebhookProcessor(
			staticVerifier{err: billing.ErrVerificationFailed},
			billing.NewDispatcher(store, discardLogger()),
			billing.WithProcessorLogger(discardLogger()),
		)

		_, err := p.Process(ctx, []byte("{}"), "bad")
		assert.ErrorIs(t, err, billing.ErrVerificationFailed)
		store.AssertExpectations(t)
	})

	t.Run("applies and marks processed", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore(billing.Profile{UserID: "u1"})
		dedupe := &mockDeduper{}
		dedupe.On("Seen", mock.Anything, "evt_checkout").Return(false, nil).Once()
		dedupe.On("MarkProcessed", mock.Anything, "evt_checkout").Return(nil).Once()

		p := billing.NewWebhookProcessor(
			staticVerifier{evt: checkoutEvent("u1", "sub_1", "week")},
			billing.NewDispatcher(store, discardLogger()),
			billing.WithDeduper(dedupe),
			billing.WithProcessorLogger(discardLogger()),
		)

		res, err := p.Process(ctx, nil, "sig")
		require.NoError(t, err)
		assert.Equal(t, billing.OutcomeApplied, res.Outcome)
		dedupe.AssertExpectations(t)
	})

	t.Run("duplicate event skips dispatch", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		dedupe := &mockDeduper{}
		dedupe.On("Seen", mock.Anything, "evt_checkout").Return(true, nil)

		p := billing.NewWebhookProcessor(
			staticVerifier{evt: checkoutEvent("u1", "sub_1", "week")},
			billing.NewDispatcher(store, discardLogger()),
			billing.WithDeduper(dedupe),
			billing.WithProcessorLogger(discardLogger()),
		)

		res, err := p.Process(ctx, nil, "sig")
		require.NoError(t, err)
		assert.Equal(t, billing.OutcomeDuplicate, res.Outcome)
		store.AssertExpectations(t)
		dedupe.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	})

	t.Run("dedupe lookup failure does not block processing", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore(subscribedProfile("u1", "sub_1", billing.PlanMonth))
		dedupe := &mockDeduper{}
		dedupe.On("Seen", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		dedupe.On("MarkProcessed", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		p := billing.NewWebhookProcessor(
			staticVerifier{evt: subscriptionEvent(billing.KindSubscriptionDeleted, "sub_1")},
			billing.NewDispatcher(store, discardLogger()),
			billing.WithDeduper(dedupe),
			billing.WithProcessorLogger(discardLogger()),
		)

		res, err := p.Process(ctx, nil, "sig")
		require.NoError(t, err)
		assert.Equal(t, billing.OutcomeApplied, res.Outcome)

		profile, err := store.FindByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, profile.SubscriptionActive)
	})

	t.Run("store failure is not marked processed", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		store.On("FindBySubscriptionID", mock.Anything, "sub_1").Return(nil, errors.New("pool closed"))
		dedupe := &mockDeduper{}
		dedupe.On("Seen", mock.Anything, mock.Anything).Return(false, nil)

		p := billing.NewWebhookProcessor(
			staticVerifier{evt: subscriptionEvent(billing.KindInvoicePaymentFailed, "sub_1")},
			billing.NewDispatcher(store, discardLogger()),
			billing.WithDeduper(dedupe),
			billing.WithProcessorLogger(discardLogger()),
		)

		_, err := p.Process(ctx, nil, "sig")
		assert.ErrorIs(t, err, billing.ErrStore)
		dedupe.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	})

	t.Run("unknown kind is acknowledged", func(t *testing.T) {
		t.Parallel()

		p := billing.NewWebhookProcessor(
			staticVerifier{evt: billing.Event{ID: "evt_x", Type: "invoice.paid", Kind: "invoice.paid"}},
			billing.NewDispatcher(&mockStore{}, discardLogger()),
			billing.WithProcessorLogger(discardLogger()),
		)

		res, err := p.Process(ctx, nil, "sig")
		require.NoError(t, err)
		assert.Equal(t, billing.OutcomeIgnored, res.Outcome)
	})
}
