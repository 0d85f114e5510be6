package redisdedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/stripesync/pkg/billing"
)

// DefaultTTL covers the provider's webhook retry window.
const DefaultTTL = 72 * time.Hour

const defaultPrefix = "stripesync:webhook:processed:"

// Client is the subset of redis.Cmdable used by the deduper.
type Client interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// Deduper records processed webhook event ids in Redis with a TTL.
type Deduper struct {
	client Client
	ttl    time.Duration
	prefix string
}

var _ billing.EventDeduper = (*Deduper)(nil)

// Option configures a Deduper.
type Option func(*Deduper)

// WithTTL overrides how long processed markers are kept.
func WithTTL(ttl time.Duration) Option {
	return func(d *Deduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) Option {
	return func(d *Deduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// New creates a Deduper backed by client.
func New(client Client, opts ...Option) *Deduper {
	if client == nil {
		panic("redisdedupe: client cannot be nil")
	}
	d := &Deduper{client: client, ttl: DefaultTTL, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Deduper) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, ErrEmptyEventID
	}
	n, err := d.client.Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed stores the marker unless it already exists, keeping the
// first processing time.
func (d *Deduper) MarkProcessed(ctx context.Context, eventID string) error {
	if eventID == "" {
		return ErrEmptyEventID
	}
	if err := d.client.SetNX(ctx, d.key(eventID), time.Now().UTC().Format(time.RFC3339), d.ttl).Err(); err != nil {
		return fmt.Errorf("mark processed event: %w", err)
	}
	return nil
}

func (d *Deduper) key(eventID string) string {
	return d.prefix + eventID
}
