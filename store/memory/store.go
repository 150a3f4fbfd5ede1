// Package memory provides an in-memory Store for tests and single-process
// deployments. Records are copied on the way in and out.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/vault"
	"github.com/xraph/vault/admin"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/subscription"
	"github.com/xraph/vault/types"
)

type Store struct {
	mu sync.RWMutex

	nextID subscription.ID

	// Subscription storage
	subscriptions map[subscription.ID]*subscription.Subscription
	replay        map[subscription.ID]*subscription.ReplayState

	// Merchant index in insertion order
	byMerchant map[types.Principal][]subscription.ID

	config *admin.Config
}

func New() *Store {
	return &Store{
		subscriptions: make(map[subscription.ID]*subscription.Subscription),
		replay:        make(map[subscription.ID]*subscription.ReplayState),
		byMerchant:    make(map[types.Principal][]subscription.ID),
	}
}

// Subscription Store implementation
func (s *Store) NextSubscriptionID(_ context.Context) (subscription.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.nextID
	s.nextID++
	return next, nil
}

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID]; exists {
		return vault.ErrAlreadyExists
	}
	cp := *sub
	s.subscriptions[sub.ID] = &cp
	s.byMerchant[sub.Merchant] = append(s.byMerchant[sub.Merchant], sub.ID)
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID subscription.ID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, vault.ErrSubscriptionNotFound
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; !ok {
		return vault.ErrSubscriptionNotFound
	}
	cp := *sub
	s.subscriptions[sub.ID] = &cp
	return nil
}

func (s *Store) ListByMerchant(_ context.Context, merchant types.Principal, offset, limit int) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byMerchant[merchant]
	result := []*subscription.Subscription{}
	if offset < 0 || offset >= len(ids) || limit <= 0 {
		return result, nil
	}

	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	for _, subID := range ids[offset:end] {
		if sub, ok := s.subscriptions[subID]; ok {
			cp := *sub
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *Store) CountByMerchant(_ context.Context, merchant types.Principal) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMerchant[merchant]), nil
}

func (s *Store) ListBySubscriber(_ context.Context, subscriber types.Principal, fromID subscription.ID, limit int) ([]subscription.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []subscription.ID
	for _, sub := range s.sortedFrom(fromID) {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if sub.Subscriber == subscriber {
			ids = append(ids, sub.ID)
		}
	}
	return ids, nil
}

func (s *Store) ListByStatus(_ context.Context, status subscription.Status, fromID subscription.ID, limit int) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, sub := range s.sortedFrom(fromID) {
		if limit > 0 && len(result) >= limit {
			break
		}
		if sub.Status == status {
			cp := *sub
			result = append(result, &cp)
		}
	}
	return result, nil
}

// sortedFrom returns subscriptions with id >= fromID in ascending id order.
// The caller holds the lock.
func (s *Store) sortedFrom(fromID subscription.ID) []*subscription.Subscription {
	subs := make([]*subscription.Subscription, 0, len(s.subscriptions))
	for subID, sub := range s.subscriptions {
		if subID >= fromID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}

func (s *Store) GetReplayState(_ context.Context, subID subscription.ID) (*subscription.ReplayState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.replay[subID]; ok {
		cp := *r
		return &cp, nil
	}
	return &subscription.ReplayState{SubscriptionID: subID}, nil
}

func (s *Store) CommitCharge(_ context.Context, sub *subscription.Subscription, r *subscription.ReplayState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; !ok {
		return vault.ErrSubscriptionNotFound
	}

	cp := *sub
	s.subscriptions[sub.ID] = &cp
	rp := *r
	rp.SubscriptionID = sub.ID
	s.replay[sub.ID] = &rp
	return nil
}

// Admin Store implementation
func (s *Store) GetConfig(_ context.Context) (*admin.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return nil, vault.ErrNotInitialized
	}
	cp := *s.config
	return &cp, nil
}

func (s *Store) SaveConfig(_ context.Context, cfg *admin.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cfg
	s.config = &cp
	return nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error { return nil }
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
