package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stewardhq/steward/internal/observability"

	"golang.org/x/sync/singleflight"
)

// CachedCapabilityResolver answers "what may this operator do" with a cache
// in front of the role query. Entries key on the access-token id so a grant
// change takes effect no later than the next token refresh, sooner when the
// operator entry is invalidated explicitly.
type CachedCapabilityResolver struct {
	cacheStore  CapabilityCacheStore
	operatorSvc OperatorServiceInterface
	ttl         time.Duration
	sf          singleflight.Group
}

func NewCachedCapabilityResolver(cacheStore CapabilityCacheStore, operatorSvc OperatorServiceInterface, ttl time.Duration) *CachedCapabilityResolver {
	return &CachedCapabilityResolver{
		cacheStore:  cacheStore,
		operatorSvc: operatorSvc,
		ttl:         ttl,
	}
}

func (r *CachedCapabilityResolver) ResolveGrants(ctx context.Context, operatorID uint, sessionTokenID string) (*OperatorGrants, error) {
	if operatorID == 0 {
		return nil, fmt.Errorf("missing operator id")
	}
	if r.cacheStore != nil && r.ttl > 0 {
		cached, ok, err := r.cacheStore.Get(ctx, operatorID, sessionTokenID)
		if err == nil && ok {
			return cached, nil
		}
	}

	sfKey := fmt.Sprintf("capgrants:operator:%d:session:%s", operatorID, cacheSessionToken(sessionTokenID))
	result, err, shared := r.sf.Do(sfKey, func() (interface{}, error) {
		if r.cacheStore != nil && r.ttl > 0 {
			cached, ok, err := r.cacheStore.Get(ctx, operatorID, sessionTokenID)
			if err == nil && ok {
				return cached, nil
			}
		}
		_, grants, err := r.operatorSvc.GetByID(operatorID)
		if err != nil {
			return nil, err
		}
		if r.cacheStore != nil && r.ttl > 0 {
			_ = r.cacheStore.Set(ctx, operatorID, sessionTokenID, grants, r.ttl)
		}
		return grants, nil
	})
	if shared {
		observability.RecordCapabilityCacheEvent(ctx, "singleflight_shared")
	} else {
		observability.RecordCapabilityCacheEvent(ctx, "singleflight_leader")
	}
	if err != nil {
		return nil, err
	}
	grants, ok := result.(*OperatorGrants)
	if !ok {
		return nil, fmt.Errorf("invalid grants result type")
	}
	return grants, nil
}

func (r *CachedCapabilityResolver) InvalidateOperator(ctx context.Context, operatorID uint) error {
	if r.cacheStore == nil {
		return nil
	}
	return r.cacheStore.InvalidateOperator(ctx, operatorID)
}

func (r *CachedCapabilityResolver) InvalidateAll(ctx context.Context) error {
	if r.cacheStore == nil {
		return nil
	}
	return r.cacheStore.InvalidateAll(ctx)
}
