package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix  = "idem:bills:"
	idempotencyPending = "pending"
)

// IdempotencyRepository remembers submission keys in Redis so a retried
// request returns the bill created by the first attempt.
type IdempotencyRepository struct {
	client redis.UniversalClient
}

// NewIdempotencyRepository constructs the repository.
func NewIdempotencyRepository(client redis.UniversalClient) *IdempotencyRepository {
	return &IdempotencyRepository{client: client}
}

// Reserve claims key for ttl. When the key already exists it returns false
// along with the stored bill id, which is empty while the first request is
// still running.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	ok, err := r.client.SetNX(ctx, idempotencyPrefix+key, idempotencyPending, ttl).Result()
	if err != nil {
		return false, "", fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}
	stored, err := r.client.Get(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("read idempotency key: %w", err)
	}
	if stored == idempotencyPending {
		stored = ""
	}
	return false, stored, nil
}

// Complete records the bill created for key.
func (r *IdempotencyRepository) Complete(ctx context.Context, key, billID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, idempotencyPrefix+key, billID, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release drops key so the request may be retried.
func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
