package billing

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/stripesync/pkg/logger"
)

// EventDeduper records processed event ids.
// Routines are idempotent, so dedupe only saves store round trips on redelivery.
type EventDeduper interface {
	// Seen reports whether the event id was already processed.
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records the event id as processed.
	MarkProcessed(ctx context.Context, eventID string) error
}

// WebhookProcessor verifies, deduplicates and dispatches inbound notifications.
type WebhookProcessor struct {
	verifier   Verifier
	dispatcher *Dispatcher
	deduper    EventDeduper
	logger     *slog.Logger
}

// ProcessorOption configures a WebhookProcessor.
type ProcessorOption func(*WebhookProcessor)

// WithDeduper enables processed-event tracking.
func WithDeduper(d EventDeduper) ProcessorOption {
	return func(p *WebhookProcessor) {
		p.deduper = d
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *WebhookProcessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewWebhookProcessor creates a processor. Panics if verifier or dispatcher is nil.
func NewWebhookProcessor(verifier Verifier, dispatcher *Dispatcher, opts ...ProcessorOption) *WebhookProcessor {
	if verifier == nil {
		panic("billing: verifier cannot be nil")
	}
	if dispatcher == nil {
		panic("billing: dispatcher cannot be nil")
	}

	p := &WebhookProcessor{
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one raw notification.
// Errors wrap ErrVerificationFailed, ErrMalformedEvent or ErrStore.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, signature string) (Result, error) {
	evt, err := p.verifier.Verify(ctx, payload, signature)
	if err != nil {
		return Result{}, err
	}

	log := p.logger.With(logger.EventID(evt.ID), logger.EventType(evt.Type))

	if p.deduper != nil && evt.ID != "" {
		seen, err := p.deduper.Seen(ctx, evt.ID)
		if err != nil {
			log.WarnContext(ctx, "event dedupe lookup failed, processing anyway", logger.Error(err))
		} else if seen {
			log.InfoContext(ctx, "duplicate billing event")
			return Result{Outcome: OutcomeDuplicate, Reason: "already processed"}, nil
		}
	}

	res, err := p.dispatcher.Dispatch(ctx, evt)
	if err != nil {
		log.ErrorContext(ctx, "billing event reconciliation failed", logger.Error(err))
		return Result{}, err
	}

	if p.deduper != nil && evt.ID != "" {
		if err := p.deduper.MarkProcessed(ctx, evt.ID); err != nil {
			log.WarnContext(ctx, "failed to mark event processed", logger.Error(err))
		}
	}

	log.DebugContext(ctx, "billing event processed",
		slog.String("outcome", string(res.Outcome)),
		slog.String("reason", res.Reason))
	return res, nil
}
