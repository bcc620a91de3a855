package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		balance NUMERIC(12,2) NOT NULL CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		kind VARCHAR(20) NOT NULL,
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)`,
	// sender_id and receiver_id outlive the accounts they name
	`CREATE TABLE IF NOT EXISTS transfers (
		id BIGSERIAL PRIMARY KEY,
		reference UUID NOT NULL UNIQUE,
		sender_id BIGINT NOT NULL,
		receiver_id BIGINT NOT NULL,
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_sender_id ON transfers(sender_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_receiver_id ON transfers(receiver_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		hashed_password VARCHAR(255) NOT NULL,
		role VARCHAR(10) NOT NULL DEFAULT 'client',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		account_id BIGINT UNIQUE REFERENCES accounts(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the ledger tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
