package database

import (
	"database/sql"
	"fmt"
	"log"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		type                  TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal', 'escrow_hold', 'escrow_release', 'escrow_refund', 'platform_fee')),
		amount                NUMERIC(36, 18) NOT NULL,
		currency              TEXT NOT NULL CHECK (currency IN ('SOL', 'USD')),
		status                TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'failed', 'cancelled')),
		order_id              TEXT,
		provider              TEXT NOT NULL CHECK (provider IN ('solana', 'paj_cash')),
		transaction_hash      TEXT,
		escrow_address        TEXT,
		payment_id            TEXT,
		bank_reference        TEXT,
		failure_reason        TEXT,
		description           TEXT,
		notes                 TEXT,
		additional_data       JSONB,
		balance_after         NUMERIC(36, 18) NOT NULL,
		platform_fee_amount   NUMERIC(36, 18),
		platform_fee_currency TEXT CHECK (platform_fee_currency IN ('SOL', 'USD')),
		version               INTEGER NOT NULL DEFAULT 1,
		created_at            TIMESTAMPTZ NOT NULL,
		updated_at            TIMESTAMPTZ NOT NULL,
		completed_at          TIMESTAMPTZ,
		CONSTRAINT transactions_order_required CHECK (
			type NOT IN ('escrow_hold', 'escrow_release', 'escrow_refund', 'platform_fee') OR order_id IS NOT NULL
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions (order_id)`,
}

// Migrate applies the ledger schema
func Migrate(db *sql.DB) error {
	const op = "database.Migrate"

	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: statement %d: %w", op, i+1, err)
		}
	}

	log.Printf("[DATABASE] schema up to date (%d statements)", len(schema))
	return nil
}
