package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/stripesync/pkg/logger"
)

// CheckoutCompleted links the subscription to the user's profile and grants access.
// Profiles are never created here.
func (d *Dispatcher) CheckoutCompleted(ctx context.Context, p CheckoutCompleted) (Result, error) {
	log := d.logger.With(logger.Component("reconcile"), logger.Event(string(KindCheckoutCompleted)))

	if p.UserID == "" || p.SubscriptionID == "" {
		log.WarnContext(ctx, "checkout completed without user or subscription id",
			logger.UserID(p.UserID),
			logger.SubscriptionID(p.SubscriptionID))
		return skipped("missing user id or subscription id"), nil
	}

	var tier *Plan
	if p.Plan != "" {
		plan, err := ParsePlan(p.Plan)
		if err != nil {
			log.WarnContext(ctx, "checkout completed with unknown plan, tier left empty",
				logger.UserID(p.UserID),
				logger.Error(err))
		} else {
			tier = &plan
		}
	}

	err := d.store.UpdateState(ctx, p.UserID, ActiveState(p.SubscriptionID, tier))
	switch {
	case errors.Is(err, ErrProfileNotFound):
		log.WarnContext(ctx, "no profile for checkout", logger.UserID(p.UserID))
		return skipped("profile not found"), nil
	case err != nil:
		return Result{}, storeError("activate subscription", err)
	}

	log.InfoContext(ctx, "subscription activated",
		logger.UserID(p.UserID),
		logger.SubscriptionID(p.SubscriptionID))
	return applied(), nil
}

// InvoicePaymentFailed revokes access for the profile linked to subscriptionID.
func (d *Dispatcher) InvoicePaymentFailed(ctx context.Context, subscriptionID string) (Result, error) {
	return d.revoke(ctx, KindInvoicePaymentFailed, subscriptionID)
}

// SubscriptionDeleted revokes access for the profile linked to subscriptionID.
func (d *Dispatcher) SubscriptionDeleted(ctx context.Context, subscriptionID string) (Result, error) {
	return d.revoke(ctx, KindSubscriptionDeleted, subscriptionID)
}

// revoke clears the subscription fields. The write is keyed by user id since
// the subscription id itself is being cleared.
func (d *Dispatcher) revoke(ctx context.Context, kind EventKind, subscriptionID string) (Result, error) {
	log := d.logger.With(logger.Component("reconcile"), logger.Event(string(kind)))

	if subscriptionID == "" {
		log.WarnContext(ctx, "event without subscription id")
		return skipped("missing subscription id"), nil
	}

	profile, err := d.store.FindBySubscriptionID(ctx, subscriptionID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		log.InfoContext(ctx, "no profile linked to subscription", logger.SubscriptionID(subscriptionID))
		return skipped("profile not found"), nil
	case err != nil:
		return Result{}, storeError("find profile by subscription", err)
	}

	err = d.store.UpdateState(ctx, profile.UserID, RevokedState())
	switch {
	case errors.Is(err, ErrProfileNotFound):
		// Removed between lookup and update.
		return skipped("profile not found"), nil
	case err != nil:
		return Result{}, storeError("revoke subscription", err)
	}

	log.InfoContext(ctx, "subscription revoked",
		logger.UserID(profile.UserID),
		logger.SubscriptionID(subscriptionID))
	return applied(), nil
}

func storeError(op string, err error) error {
	if errors.Is(err, ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return errors.Join(ErrStore, fmt.Errorf("%s: %w", op, err))
}
