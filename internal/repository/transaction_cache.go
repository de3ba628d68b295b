package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/artisanhub/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

const cacheKeyPrefix = "ledger:tx:"

// TransactionCache keeps recently read or written entries in Redis.
// A nil client turns every call into a miss.
type TransactionCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewTransactionCache(client *redis.Client, ttl time.Duration) *TransactionCache {
	return &TransactionCache{
		redis: client,
		ttl:   ttl,
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (c *TransactionCache) Get(ctx context.Context, id string) (*models.Transaction, bool, error) {
	const op = "repository.TransactionCache.Get"

	if c == nil || c.redis == nil {
		return nil, false, nil
	}

	data, err := c.redis.Get(ctx, cacheKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var tx models.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return &tx, true, nil
}

func (c *TransactionCache) Set(ctx context.Context, tx *models.Transaction) error {
	const op = "repository.TransactionCache.Set"

	if c == nil || c.redis == nil {
		return nil
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.redis.Set(ctx, cacheKey(tx.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
