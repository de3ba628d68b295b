package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/artisanhub/backend/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNoRows is returned by GetByID when no entry has the given id
var ErrNoRows = sql.ErrNoRows

// TransactionStore persists ledger entries
type TransactionStore interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	// Update writes the mutable columns of tx if the stored version still
	// equals expectedVersion. It reports false when no row matched.
	Update(ctx context.Context, tx *models.Transaction, expectedVersion int) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
}

const transactionColumns = `id, user_id, type, amount, currency, status, order_id,
	provider, transaction_hash, escrow_address, payment_id, bank_reference, failure_reason,
	description, notes, additional_data, balance_after, platform_fee_amount, platform_fee_currency,
	version, created_at, updated_at, completed_at`

type PostgresTransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *PostgresTransactionStore {
	return &PostgresTransactionStore{db: db}
}

func (s *PostgresTransactionStore) Insert(ctx context.Context, tx *models.Transaction) error {
	const op = "repository.Transaction.Insert"

	var feeAmount decimal.NullDecimal
	var feeCurrency sql.NullString
	if tx.PlatformFee != nil {
		feeAmount = decimal.NewNullDecimal(tx.PlatformFee.Amount)
		feeCurrency = nullString(string(tx.PlatformFee.Currency))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount, string(tx.Currency), string(tx.Status), nullStringPtr(tx.OrderID),
		string(tx.PaymentDetails.Provider), nullString(tx.PaymentDetails.TransactionHash),
		nullString(tx.PaymentDetails.EscrowAddress), nullString(tx.PaymentDetails.PaymentID),
		nullString(tx.PaymentDetails.BankReference), nullString(tx.PaymentDetails.FailureReason),
		nullString(tx.Metadata.Description), nullString(tx.Metadata.Notes), tx.Metadata.AdditionalData,
		tx.BalanceAfter, feeAmount, feeCurrency,
		tx.Version, tx.CreatedAt, tx.UpdatedAt, nullTime(tx),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *PostgresTransactionStore) Update(ctx context.Context, tx *models.Transaction, expectedVersion int) (bool, error) {
	const op = "repository.Transaction.Update"

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, transaction_hash = $2, failure_reason = $3,
		    version = version + 1, updated_at = $4, completed_at = $5
		WHERE id = $6 AND version = $7`,
		string(tx.Status), nullString(tx.PaymentDetails.TransactionHash), nullString(tx.PaymentDetails.FailureReason),
		tx.UpdatedAt, nullTime(tx), tx.ID, expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	tx.Version = expectedVersion + 1
	return true, nil
}

func (s *PostgresTransactionStore) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	const op = "repository.Transaction.GetByID"

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tx, nil
}

func (s *PostgresTransactionStore) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	const op = "repository.Transaction.List"

	var conditions []string
	var args []any
	argIndex := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
	args = append(args, filter.UserID)
	argIndex++

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(filter.Status))
		argIndex++
	}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, string(filter.Type))
		argIndex++
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx                                              models.Transaction
		txType, currency, status, provider              string
		orderID, txHash, escrowAddr, paymentID, bankRef sql.NullString
		failureReason, description, notes, feeCurrency  sql.NullString
		feeAmount                                       decimal.NullDecimal
		completedAt                                     sql.NullTime
	)

	err := row.Scan(
		&tx.ID, &tx.UserID, &txType, &tx.Amount, &currency, &status, &orderID,
		&provider, &txHash, &escrowAddr, &paymentID, &bankRef, &failureReason,
		&description, &notes, &tx.Metadata.AdditionalData, &tx.BalanceAfter, &feeAmount, &feeCurrency,
		&tx.Version, &tx.CreatedAt, &tx.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = models.TransactionType(txType)
	tx.Currency = models.Currency(currency)
	tx.Status = models.TransactionStatus(status)
	if orderID.Valid {
		tx.OrderID = &orderID.String
	}
	tx.PaymentDetails = models.PaymentDetails{
		Provider:        models.PaymentProvider(provider),
		TransactionHash: txHash.String,
		EscrowAddress:   escrowAddr.String,
		PaymentID:       paymentID.String,
		BankReference:   bankRef.String,
		FailureReason:   failureReason.String,
	}
	tx.Metadata.Description = description.String
	tx.Metadata.Notes = notes.String
	if feeAmount.Valid {
		tx.PlatformFee = &models.PlatformFee{
			Amount:   feeAmount.Decimal,
			Currency: models.Currency(feeCurrency.String),
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		tx.CompletedAt = &t
	}

	return &tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func nullTime(tx *models.Transaction) sql.NullTime {
	if tx.CompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *tx.CompletedAt, Valid: true}
}
