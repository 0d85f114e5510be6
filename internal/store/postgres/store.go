package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrymomot/stripesync/pkg/billing"
	"github.com/dmitrymomot/stripesync/pkg/pg"
)

// DBTX is the subset of *sql.DB and *sql.Tx the store needs.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ProfileStore implements billing.ProfileStore on PostgreSQL.
// Uniqueness of user_id and stripe_subscription_id is enforced by the schema.
type ProfileStore struct {
	db DBTX
}

var _ billing.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore wraps db. Pass stdlib.OpenDBFromPool(pool) to share a pgx pool.
func NewProfileStore(db DBTX) *ProfileStore {
	if db == nil {
		panic("postgres: db cannot be nil")
	}
	return &ProfileStore{db: db}
}

const profileColumns = `user_id, stripe_subscription_id, subscription_active, subscription_tier, created_at, updated_at`

const (
	findByUserIDQuery = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	findBySubscriptionIDQuery = `SELECT ` + profileColumns + ` FROM profiles WHERE stripe_subscription_id = $1`

	updateStateQuery = `UPDATE profiles
SET stripe_subscription_id = $2, subscription_active = $3, subscription_tier = $4, updated_at = now()
WHERE user_id = $1`

	// The no-op update makes RETURNING yield the existing row on conflict.
	createQuery = `INSERT INTO profiles (user_id) VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING ` + profileColumns
)

func (s *ProfileStore) FindByUserID(ctx context.Context, userID string) (*billing.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, findByUserIDQuery, userID))
	if err != nil {
		return nil, mapError("find profile by user id", err)
	}
	return p, nil
}

func (s *ProfileStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*billing.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, findBySubscriptionIDQuery, subscriptionID))
	if err != nil {
		return nil, mapError("find profile by subscription id", err)
	}
	return p, nil
}

func (s *ProfileStore) UpdateState(ctx context.Context, userID string, state billing.SubscriptionState) error {
	var tier sql.NullString
	if state.Tier != nil {
		tier = sql.NullString{String: string(*state.Tier), Valid: true}
	}
	var subID sql.NullString
	if state.StripeSubscriptionID != nil {
		subID = sql.NullString{String: *state.StripeSubscriptionID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, updateStateQuery, userID, subID, state.Active, tier)
	if err != nil {
		return mapError("update subscription state", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription state: %w", err)
	}
	if n == 0 {
		return billing.ErrProfileNotFound
	}
	return nil
}

func (s *ProfileStore) Create(ctx context.Context, userID string) (*billing.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, createQuery, userID))
	if err != nil {
		return nil, mapError("create profile", err)
	}
	return p, nil
}

func scanProfile(row *sql.Row) (*billing.Profile, error) {
	var (
		p     billing.Profile
		subID sql.NullString
		tier  sql.NullString
	)
	if err := row.Scan(&p.UserID, &subID, &p.SubscriptionActive, &tier, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if subID.Valid {
		p.StripeSubscriptionID = &subID.String
	}
	if tier.Valid {
		if plan, err := billing.ParsePlan(tier.String); err == nil {
			p.SubscriptionTier = &plan
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func mapError(op string, err error) error {
	switch {
	case pg.IsNotFoundError(err):
		return billing.ErrProfileNotFound
	case pg.IsDuplicateKeyError(err):
		return errors.Join(billing.ErrDuplicateSubscription, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
