package billing

import "context"

// EventKind identifies a verified billing event.
// Kinds this package acts upon have dedicated constants; any other provider
// event type is carried verbatim.
type EventKind string

const (
	KindCheckoutCompleted    EventKind = "checkout_completed"
	KindInvoicePaymentFailed EventKind = "invoice_payment_failed"
	KindSubscriptionDeleted  EventKind = "subscription_deleted"
)

// Event is a verified billing notification. Exactly one payload field is set
// for the known kinds; unknown kinds carry no payload.
type Event struct {
	ID           string    // Provider's event identifier
	Type         string    // Provider event type as received
	Kind         EventKind // Normalized kind
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionRef
}

// CheckoutCompleted is the payload of a completed hosted checkout.
// UserID and Plan come from the metadata attached when the session was created.
type CheckoutCompleted struct {
	UserID         string
	SubscriptionID string
	Plan           string
}

// SubscriptionRef is the payload of events that only reference a subscription.
type SubscriptionRef struct {
	SubscriptionID string
}

// Verifier authenticates an inbound notification and decodes it into an Event.
// It never mutates business state.
type Verifier interface {
	Verify(ctx context.Context, payload []byte, signature string) (Event, error)
}
