package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit       TransactionType = "deposit"
	TypeWithdrawal    TransactionType = "withdrawal"
	TypeEscrowHold    TransactionType = "escrow_hold"
	TypeEscrowRelease TransactionType = "escrow_release"
	TypeEscrowRefund  TransactionType = "escrow_refund"
	TypePlatformFee   TransactionType = "platform_fee"
)

var AllTransactionTypes = []TransactionType{
	TypeDeposit, TypeWithdrawal, TypeEscrowHold, TypeEscrowRelease, TypeEscrowRefund, TypePlatformFee,
}

func (t TransactionType) IsValid() bool {
	for _, v := range AllTransactionTypes {
		if t == v {
			return true
		}
	}
	return false
}

// RequiresOrder reports whether entries of this type must reference an order
func (t TransactionType) RequiresOrder() bool {
	switch t {
	case TypeEscrowHold, TypeEscrowRelease, TypeEscrowRefund, TypePlatformFee:
		return true
	}
	return false
}

type Currency string

const (
	CurrencySOL Currency = "SOL"
	CurrencyUSD Currency = "USD"
)

var AllCurrencies = []Currency{CurrencySOL, CurrencyUSD}

func (c Currency) IsValid() bool {
	return c == CurrencySOL || c == CurrencyUSD
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

var AllStatuses = []TransactionStatus{StatusPending, StatusCompleted, StatusFailed, StatusCancelled}

func (s TransactionStatus) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PaymentProvider string

const (
	ProviderSolana  PaymentProvider = "solana"
	ProviderPajCash PaymentProvider = "paj_cash"
)

var AllProviders = []PaymentProvider{ProviderSolana, ProviderPajCash}

func (p PaymentProvider) IsValid() bool {
	return p == ProviderSolana || p == ProviderPajCash
}

// PaymentDetails holds provider specific references for a ledger entry
type PaymentDetails struct {
	Provider        PaymentProvider `json:"provider" validate:"required,oneof=solana paj_cash"`
	TransactionHash string          `json:"transactionHash,omitempty"`
	EscrowAddress   string          `json:"escrowAddress,omitempty"`
	PaymentID       string          `json:"paymentId,omitempty"`
	BankReference   string          `json:"bankReference,omitempty"`
	FailureReason   string          `json:"failureReason,omitempty"`
}

type TransactionMetadata struct {
	Description    string   `json:"description,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	AdditionalData Metadata `json:"additionalData,omitempty"`
}

// PlatformFee is set when a fee was deducted alongside the entry
type PlatformFee struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency" validate:"required,oneof=SOL USD"`
}

// Transaction is a single ledger entry recording one financial movement
type Transaction struct {
	ID             string              `json:"id" db:"id"`
	UserID         string              `json:"user" db:"user_id"`
	Type           TransactionType     `json:"type" db:"type"`
	Amount         decimal.Decimal     `json:"amount" db:"amount"`
	Currency       Currency            `json:"currency" db:"currency"`
	Status         TransactionStatus   `json:"status" db:"status"`
	OrderID        *string             `json:"order,omitempty" db:"order_id"`
	PaymentDetails PaymentDetails      `json:"paymentDetails"`
	Metadata       TransactionMetadata `json:"metadata"`
	BalanceAfter   decimal.Decimal     `json:"balanceAfter" db:"balance_after"`
	PlatformFee    *PlatformFee        `json:"platformFee,omitempty"`
	Version        int                 `json:"version" db:"version"`
	CreatedAt      time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" db:"updated_at"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty" db:"completed_at"`
}

// CreateTransactionRequest is the input for recording a new ledger entry.
// Status and the timestamps decode from client payloads but are always
// overwritten when the entry is created.
type CreateTransactionRequest struct {
	UserID         string              `json:"user" validate:"required"`
	Type           TransactionType     `json:"type" validate:"required,oneof=deposit withdrawal escrow_hold escrow_release escrow_refund platform_fee"`
	Amount         *decimal.Decimal    `json:"amount" validate:"required"`
	Currency       Currency            `json:"currency" validate:"required,oneof=SOL USD"`
	OrderID        *string             `json:"order,omitempty"`
	PaymentDetails PaymentDetails      `json:"paymentDetails"`
	Metadata       TransactionMetadata `json:"metadata"`
	BalanceAfter   *decimal.Decimal    `json:"balanceAfter" validate:"required"`
	PlatformFee    *PlatformFee        `json:"platformFee,omitempty"`

	Status      TransactionStatus `json:"status,omitempty"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// StatusUpdate carries a status change and the optional payment details
// that come with it
type StatusUpdate struct {
	Status          TransactionStatus `json:"status"`
	FailureReason   *string           `json:"failureReason,omitempty"`
	TransactionHash *string           `json:"transactionHash,omitempty"`
	ExpectedVersion *int              `json:"expectedVersion,omitempty"`
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type TransactionFilter struct {
	UserID string
	Status TransactionStatus
	Type   TransactionType
	Limit  int
	Offset int
}
