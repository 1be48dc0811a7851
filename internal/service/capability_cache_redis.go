package service

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisCapabilityCacheStore invalidates by bumping epoch counters instead of
// scanning keys: stale entries simply stop being addressable and expire.
type RedisCapabilityCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCapabilityCacheStore(client redis.UniversalClient, prefix string) *RedisCapabilityCacheStore {
	if prefix == "" {
		prefix = "capgrants"
	}
	return &RedisCapabilityCacheStore{client: client, prefix: prefix}
}

func (s *RedisCapabilityCacheStore) Get(ctx context.Context, operatorID uint, sessionTokenID string) (*OperatorGrants, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	key, err := s.entryKey(ctx, operatorID, sessionTokenID)
	if err != nil {
		return nil, false, err
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var grants OperatorGrants
	if err := json.Unmarshal(raw, &grants); err != nil {
		return nil, false, err
	}
	return &grants, true, nil
}

func (s *RedisCapabilityCacheStore) Set(ctx context.Context, operatorID uint, sessionTokenID string, grants *OperatorGrants, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 || grants == nil {
		return nil
	}
	key, err := s.entryKey(ctx, operatorID, sessionTokenID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(grants)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, ttl).Err()
}

func (s *RedisCapabilityCacheStore) InvalidateOperator(ctx context.Context, operatorID uint) error {
	if s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, s.operatorEpochKey(operatorID)).Err()
}

func (s *RedisCapabilityCacheStore) InvalidateAll(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, s.globalEpochKey()).Err()
}

func (s *RedisCapabilityCacheStore) entryKey(ctx context.Context, operatorID uint, sessionTokenID string) (string, error) {
	globalEpoch, err := s.epoch(ctx, s.globalEpochKey())
	if err != nil {
		return "", err
	}
	operatorEpoch, err := s.epoch(ctx, s.operatorEpochKey(operatorID))
	if err != nil {
		return "", err
	}
	return s.prefix + ":" + buildCapabilityCacheKey(globalEpoch, operatorEpoch, operatorID, sessionTokenID), nil
}

func (s *RedisCapabilityCacheStore) epoch(ctx context.Context, key string) (uint64, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *RedisCapabilityCacheStore) globalEpochKey() string {
	return s.prefix + ":epoch:global"
}

func (s *RedisCapabilityCacheStore) operatorEpochKey(operatorID uint) string {
	return s.prefix + ":epoch:operator:" + strconv.FormatUint(uint64(operatorID), 10)
}
