package billing

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory ProfileStore with the same unique-key
// semantics as the SQL implementation. Useful for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	bySubID  map[string]string
}

// NewMemoryStore creates a store pre-populated with the given profiles.
func NewMemoryStore(profiles ...Profile) *MemoryStore {
	s := &MemoryStore{
		profiles: make(map[string]Profile, len(profiles)),
		bySubID:  make(map[string]string, len(profiles)),
	}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
		if p.HasSubscription() {
			s.bySubID[*p.StripeSubscriptionID] = p.UserID
		}
	}
	return s
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) FindBySubscriptionID(_ context.Context, subscriptionID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.bySubID[subscriptionID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return clone(s.profiles[userID]), nil
}

func (s *MemoryStore) UpdateState(_ context.Context, userID string, state SubscriptionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}

	if state.StripeSubscriptionID != nil {
		if owner, taken := s.bySubID[*state.StripeSubscriptionID]; taken && owner != userID {
			return ErrDuplicateSubscription
		}
	}

	if p.HasSubscription() {
		delete(s.bySubID, *p.StripeSubscriptionID)
	}

	p.StripeSubscriptionID = copyString(state.StripeSubscriptionID)
	p.SubscriptionActive = state.Active
	p.SubscriptionTier = copyPlan(state.Tier)
	p.UpdatedAt = time.Now().UTC()

	if p.HasSubscription() {
		s.bySubID[*p.StripeSubscriptionID] = userID
	}
	s.profiles[userID] = p
	return nil
}

func (s *MemoryStore) Create(_ context.Context, userID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[userID]; ok {
		return clone(p), nil
	}

	now := time.Now().UTC()
	p := Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.profiles[userID] = p
	return clone(p), nil
}

// clone detaches the returned profile from the store's internal state.
func clone(p Profile) *Profile {
	p.StripeSubscriptionID = copyString(p.StripeSubscriptionID)
	p.SubscriptionTier = copyPlan(p.SubscriptionTier)
	return &p
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyPlan(p *Plan) *Plan {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
