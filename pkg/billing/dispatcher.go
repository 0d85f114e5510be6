package billing

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/stripesync/pkg/logger"
)

// Outcome describes how a dispatched event affected the profile store.
type Outcome string

const (
	// OutcomeApplied means the event's final state was written.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the event was acknowledged without a write because
	// its payload was incomplete or the referenced profile does not exist.
	// Redelivery cannot change this outcome.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeIgnored means the event kind is not acted upon.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeDuplicate means the event id was already processed.
	OutcomeDuplicate Outcome = "duplicate"
)

// Result is the non-error outcome of processing an event.
type Result struct {
	Outcome Outcome
	Reason  string
}

func applied() Result { return Result{Outcome: OutcomeApplied} }

func skipped(reason string) Result { return Result{Outcome: OutcomeSkipped, Reason: reason} }

// Dispatcher routes verified events to their reconciliation routines.
type Dispatcher struct {
	store  ProfileStore
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher writing to store.
func NewDispatcher(store ProfileStore, log *slog.Logger) *Dispatcher {
	if store == nil {
		panic("billing: profile store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{store: store, logger: log}
}

// Dispatch applies evt. Unknown kinds are acknowledged with OutcomeIgnored.
// A non-nil error wraps ErrStore and means the event should be redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) (Result, error) {
	switch evt.Kind {
	case KindCheckoutCompleted:
		var payload CheckoutCompleted
		if evt.Checkout != nil {
			payload = *evt.Checkout
		}
		return d.CheckoutCompleted(ctx, payload)

	case KindInvoicePaymentFailed:
		return d.InvoicePaymentFailed(ctx, subscriptionIDOf(evt))

	case KindSubscriptionDeleted:
		return d.SubscriptionDeleted(ctx, subscriptionIDOf(evt))

	default:
		d.logger.InfoContext(ctx, "unhandled billing event",
			logger.EventID(evt.ID),
			logger.EventType(evt.Type))
		return Result{Outcome: OutcomeIgnored, Reason: "unhandled event type"}, nil
	}
}

func subscriptionIDOf(evt Event) string {
	if evt.Subscription == nil {
		return ""
	}
	return evt.Subscription.SubscriptionID
}
