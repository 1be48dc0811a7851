package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CapabilityCacheStore caches resolved operator grants per access token so
// repeated checks inside a session skip the role query.
type CapabilityCacheStore interface {
	Get(ctx context.Context, operatorID uint, sessionTokenID string) (*OperatorGrants, bool, error)
	Set(ctx context.Context, operatorID uint, sessionTokenID string, grants *OperatorGrants, ttl time.Duration) error
	InvalidateOperator(ctx context.Context, operatorID uint) error
	InvalidateAll(ctx context.Context) error
}

type NoopCapabilityCacheStore struct{}

func NewNoopCapabilityCacheStore() *NoopCapabilityCacheStore { return &NoopCapabilityCacheStore{} }

func (s *NoopCapabilityCacheStore) Get(context.Context, uint, string) (*OperatorGrants, bool, error) {
	return nil, false, nil
}

func (s *NoopCapabilityCacheStore) Set(context.Context, uint, string, *OperatorGrants, time.Duration) error {
	return nil
}

func (s *NoopCapabilityCacheStore) InvalidateOperator(context.Context, uint) error { return nil }
func (s *NoopCapabilityCacheStore) InvalidateAll(context.Context) error            { return nil }

type capabilityCacheEntry struct {
	grants    *OperatorGrants
	expiresAt time.Time
}

type InMemoryCapabilityCacheStore struct {
	mu    sync.RWMutex
	store map[uint]map[string]capabilityCacheEntry
}

func NewInMemoryCapabilityCacheStore() *InMemoryCapabilityCacheStore {
	return &InMemoryCapabilityCacheStore{store: make(map[uint]map[string]capabilityCacheEntry)}
}

func (s *InMemoryCapabilityCacheStore) Get(_ context.Context, operatorID uint, sessionTokenID string) (*OperatorGrants, bool, error) {
	s.mu.RLock()
	entry, ok := s.store[operatorID][cacheSessionToken(sessionTokenID)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.store[operatorID], cacheSessionToken(sessionTokenID))
		s.mu.Unlock()
		return nil, false, nil
	}
	return copyGrants(entry.grants), true, nil
}

func (s *InMemoryCapabilityCacheStore) Set(_ context.Context, operatorID uint, sessionTokenID string, grants *OperatorGrants, ttl time.Duration) error {
	if ttl <= 0 || grants == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byToken, ok := s.store[operatorID]
	if !ok {
		byToken = make(map[string]capabilityCacheEntry)
		s.store[operatorID] = byToken
	}
	byToken[cacheSessionToken(sessionTokenID)] = capabilityCacheEntry{
		grants:    copyGrants(grants),
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *InMemoryCapabilityCacheStore) InvalidateOperator(_ context.Context, operatorID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, operatorID)
	return nil
}

func (s *InMemoryCapabilityCacheStore) InvalidateAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = make(map[uint]map[string]capabilityCacheEntry)
	return nil
}

func cacheSessionToken(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func copyGrants(in *OperatorGrants) *OperatorGrants {
	if in == nil {
		return nil
	}
	out := &OperatorGrants{
		Grants:  make(map[string]int64, len(in.Grants)),
		RoleIDs: append([]uint(nil), in.RoleIDs...),
	}
	for k, v := range in.Grants {
		out.Grants[k] = v
	}
	return out
}

func buildCapabilityCacheKey(globalEpoch, operatorEpoch uint64, operatorID uint, sessionTokenID string) string {
	return fmt.Sprintf("capgrants:g%d:u%d:operator:%d:s:%s", globalEpoch, operatorEpoch, operatorID, cacheSessionToken(sessionTokenID))
}
