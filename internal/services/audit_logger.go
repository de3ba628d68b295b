package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/artisanhub/backend/internal/models"
)

type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Amount        string    `json:"amount,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogCreated(tx *models.Transaction) {
	details := map[string]string{
		"type":     string(tx.Type),
		"provider": string(tx.PaymentDetails.Provider),
	}
	if tx.OrderID != nil {
		details["order_id"] = *tx.OrderID
	}

	a.log(AuditEvent{
		Timestamp:     tx.CreatedAt,
		EventType:     "TRANSACTION_CREATED",
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount.String(),
		Currency:      string(tx.Currency),
		Status:        string(tx.Status),
		Details:       details,
	})
}

func (a *AuditLogger) LogStatusChange(tx *models.Transaction, previous models.TransactionStatus) {
	details := map[string]string{
		"previous_status": string(previous),
	}
	if tx.PaymentDetails.TransactionHash != "" {
		details["transaction_hash"] = tx.PaymentDetails.TransactionHash
	}
	if tx.PaymentDetails.FailureReason != "" {
		details["failure_reason"] = tx.PaymentDetails.FailureReason
	}

	a.log(AuditEvent{
		Timestamp:     tx.UpdatedAt,
		EventType:     "STATUS_CHANGED",
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount.String(),
		Currency:      string(tx.Currency),
		Status:        string(tx.Status),
		Details:       details,
	})
}

func (a *AuditLogger) LogError(transactionID, userID string, err error) {
	a.log(AuditEvent{
		Timestamp:     time.Now(),
		EventType:     "ERROR",
		TransactionID: transactionID,
		UserID:        userID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
