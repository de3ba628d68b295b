package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresDirectory resolves user and order references against their tables
type PostgresDirectory struct {
	db *sql.DB
}

func NewDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	const op = "repository.Directory.UserExists"

	var exists bool
	err := d.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id::text = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (d *PostgresDirectory) OrderExists(ctx context.Context, orderID string) (bool, error) {
	const op = "repository.Directory.OrderExists"

	var exists bool
	err := d.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id::text = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}
