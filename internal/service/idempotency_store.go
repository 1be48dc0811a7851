package service

import (
	"context"
	"time"
)

// IdempotencyState classifies the outcome of Begin for a scope/key pair.
type IdempotencyState string

const (
	IdempotencyStateNew        IdempotencyState = "new"
	IdempotencyStateInProgress IdempotencyState = "in_progress"
	IdempotencyStateReplay     IdempotencyState = "replay"
	IdempotencyStateConflict   IdempotencyState = "conflict"
)

// CachedHTTPResponse is the stored response replayed for a completed key.
type CachedHTTPResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

type IdempotencyBeginResult struct {
	State  IdempotencyState
	Cached *CachedHTTPResponse
}

// IdempotencyStore reserves idempotency keys and caches responses for replay.
// Begin claims the scope/key pair; Complete records the final response so a
// retry with the same fingerprint replays it instead of re-running the handler.
type IdempotencyStore interface {
	Begin(ctx context.Context, scope, key, fingerprint string, ttl time.Duration) (IdempotencyBeginResult, error)
	Complete(ctx context.Context, scope, key, fingerprint string, response CachedHTTPResponse, ttl time.Duration) error
}
