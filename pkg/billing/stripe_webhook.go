package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dmitrymomot/stripesync/pkg/logger"
)

// Stripe event types handled by the reconciliation routines.
const (
	stripeCheckoutSessionCompleted = "checkout.session.completed"
	stripeInvoicePaymentFailed     = "invoice.payment_failed"
	stripeSubscriptionDeleted      = "customer.subscription.deleted"
)

// Checkout session metadata keys.
const (
	MetadataUserID   = "clerkUserId"
	MetadataPlanType = "planType"
)

// DefaultWebhookTolerance is the maximum accepted age of a signed payload.
const DefaultWebhookTolerance = webhook.DefaultTolerance

// StripeVerifier verifies Stripe webhook signatures and decodes verified events.
type StripeVerifier struct {
	secret    string
	tolerance time.Duration
	logger    *slog.Logger
}

// VerifierOption configures a StripeVerifier.
type VerifierOption func(*StripeVerifier)

// WithTolerance sets the accepted timestamp skew for signed payloads.
func WithTolerance(d time.Duration) VerifierOption {
	return func(v *StripeVerifier) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// WithVerifierLogger sets the logger used to report rejected payloads.
func WithVerifierLogger(l *slog.Logger) VerifierOption {
	return func(v *StripeVerifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewStripeVerifier creates a verifier for the given webhook signing secret.
func NewStripeVerifier(secret string, opts ...VerifierOption) (*StripeVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}

	v := &StripeVerifier{
		secret:    secret,
		tolerance: DefaultWebhookTolerance,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify checks the signature header against the raw body and returns the typed event.
// It never touches business state.
func (v *StripeVerifier) Verify(ctx context.Context, payload []byte, signature string) (Event, error) {
	if strings.TrimSpace(signature) == "" {
		v.logger.WarnContext(ctx, "webhook rejected: missing signature header",
			logger.Component("webhook_verifier"))
		return Event{}, fmt.Errorf("%w: missing signature header", ErrVerificationFailed)
	}

	se, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		v.logger.WarnContext(ctx, "webhook rejected: signature verification failed",
			logger.Component("webhook_verifier"),
			logger.Error(err))
		return Event{}, errors.Join(ErrVerificationFailed, err)
	}

	evt, err := decodeStripeEvent(se)
	if err != nil {
		v.logger.WarnContext(ctx, "webhook rejected: malformed event payload",
			logger.Component("webhook_verifier"),
			logger.EventID(se.ID),
			logger.EventType(string(se.Type)),
			logger.Error(err))
		return Event{}, err
	}
	return evt, nil
}

type stripeCheckoutSession struct {
	Subscription stripeRef         `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeInvoice struct {
	Subscription stripeRef `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription stripeRef `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (i stripeInvoice) subscriptionID() string {
	if i.Subscription != "" {
		return string(i.Subscription)
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return string(i.Parent.SubscriptionDetails.Subscription)
	}
	return ""
}

type stripeSubscription struct {
	ID string `json:"id"`
}

// stripeRef accepts either a bare object id or an expanded object with an id.
type stripeRef string

func (r *stripeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = stripeRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = stripeRef(obj.ID)
	return nil
}

func decodeStripeEvent(se stripe.Event) (Event, error) {
	evt := Event{
		ID:   se.ID,
		Type: string(se.Type),
		Kind: EventKind(se.Type),
	}

	var raw json.RawMessage
	if se.Data != nil {
		raw = se.Data.Raw
	}

	switch evt.Type {
	case stripeCheckoutSessionCompleted:
		var sess stripeCheckoutSession
		if err := unmarshalEventObject(raw, &sess); err != nil {
			return Event{}, err
		}
		evt.Kind = KindCheckoutCompleted
		evt.Checkout = &CheckoutCompleted{
			UserID:         sess.Metadata[MetadataUserID],
			SubscriptionID: string(sess.Subscription),
			Plan:           sess.Metadata[MetadataPlanType],
		}

	case stripeInvoicePaymentFailed:
		var inv stripeInvoice
		if err := unmarshalEventObject(raw, &inv); err != nil {
			return Event{}, err
		}
		evt.Kind = KindInvoicePaymentFailed
		evt.Subscription = &SubscriptionRef{SubscriptionID: inv.subscriptionID()}

	case stripeSubscriptionDeleted:
		var sub stripeSubscription
		if err := unmarshalEventObject(raw, &sub); err != nil {
			return Event{}, err
		}
		evt.Kind = KindSubscriptionDeleted
		evt.Subscription = &SubscriptionRef{SubscriptionID: sub.ID}
	}

	return evt, nil
}

func unmarshalEventObject(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty data object", ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(ErrMalformedEvent, err)
	}
	return nil
}
