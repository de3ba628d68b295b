package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artisanhub/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	EventTransactionCreated = "transaction.created"
	EventStatusChanged      = "transaction.status_changed"
)

type LedgerEvent struct {
	Event          string                   `json:"event"`
	TransactionID  string                   `json:"transactionId"`
	UserID         string                   `json:"userId"`
	OrderID        *string                  `json:"orderId,omitempty"`
	Type           models.TransactionType   `json:"type"`
	Status         models.TransactionStatus `json:"status"`
	PreviousStatus models.TransactionStatus `json:"previousStatus,omitempty"`
	Amount         string                   `json:"amount"`
	Currency       models.Currency          `json:"currency"`
	Version        int                      `json:"version"`
	OccurredAt     time.Time                `json:"occurredAt"`
}

func newLedgerEvent(name string, tx *models.Transaction, previous models.TransactionStatus) LedgerEvent {
	return LedgerEvent{
		Event:          name,
		TransactionID:  tx.ID,
		UserID:         tx.UserID,
		OrderID:        tx.OrderID,
		Type:           tx.Type,
		Status:         tx.Status,
		PreviousStatus: previous,
		Amount:         tx.Amount.String(),
		Currency:       tx.Currency,
		Version:        tx.Version,
		OccurredAt:     tx.UpdatedAt,
	}
}

// RedisEventPublisher appends ledger events to a Redis list for downstream
// consumers such as notifications and escrow reconciliation
type RedisEventPublisher struct {
	redis *redis.Client
	queue string
}

func NewRedisEventPublisher(client *redis.Client, queue string) *RedisEventPublisher {
	return &RedisEventPublisher{
		redis: client,
		queue: queue,
	}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	if p.redis == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.redis.RPush(ctx, p.queue, data).Err()
}
