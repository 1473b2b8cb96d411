// Package testutil provides a containerized Postgres for integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// SetupTestDB starts a disposable Postgres container, waits for it to accept
// connections, applies the wallet schema and returns the pool plus a
// teardown function.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	postgresC, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("walletd"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("secret"),
	)
	require.NoError(t, err)

	dbURL, err := postgresC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var pool *pgxpool.Pool
	for i := 0; i < 20; i++ {
		pool, err = pgxpool.New(ctx, dbURL)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "postgres did not become ready in time")

	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)

	return pool, func() {
		pool.Close()
		_ = postgresC.Terminate(ctx)
	}
}

// SeedUser inserts one identity row into the platform user store.
func SeedUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID, name, phone string) {
	t.Helper()
	_, err := pool.Exec(ctx, `INSERT INTO users (user_id, name, phone) VALUES ($1, $2, $3);`, userID, name, phone)
	require.NoError(t, err)
}

// schema mirrors migrations/000001_create_wallet_tables.up.sql.
const schema = `
CREATE TABLE wallet_accounts (
    kind            VARCHAR(10)    NOT NULL,
    user_id         VARCHAR(64)    NOT NULL,
    account_number  VARCHAR(32)    NOT NULL,
    balance         NUMERIC(20, 3) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    total_earned    NUMERIC(20, 3) NOT NULL DEFAULT 0,
    total_withdrawn NUMERIC(20, 3) NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ    NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ    NOT NULL DEFAULT now(),
    PRIMARY KEY (kind, user_id),
    CONSTRAINT wallet_accounts_kind_check CHECK (kind IN ('USER', 'AGENT')),
    CONSTRAINT wallet_accounts_number_unique UNIQUE (kind, account_number)
);

CREATE TABLE wallet_transactions (
    transaction_id         VARCHAR(36)    PRIMARY KEY,
    kind                   VARCHAR(10)    NOT NULL,
    user_id                VARCHAR(64)    NOT NULL,
    txn_type               VARCHAR(20)    NOT NULL,
    amount                 NUMERIC(20, 3) NOT NULL CHECK (amount > 0),
    balance_before         NUMERIC(20, 3) NOT NULL,
    balance_after          NUMERIC(20, 3) NOT NULL,
    related_user_id        VARCHAR(64),
    related_account_number VARCHAR(32),
    description            TEXT,
    created_at             TIMESTAMPTZ    NOT NULL DEFAULT now(),
    CONSTRAINT wallet_transactions_type_check
        CHECK (txn_type IN ('DEPOSIT', 'WITHDRAW', 'TRANSFER_IN', 'TRANSFER_OUT')),
    CONSTRAINT wallet_transactions_account_fk
        FOREIGN KEY (kind, user_id) REFERENCES wallet_accounts (kind, user_id)
);

CREATE INDEX idx_wallet_transactions_account_created
    ON wallet_transactions (kind, user_id, created_at DESC);

CREATE TABLE withdrawal_requests (
    withdrawal_id    VARCHAR(36)    PRIMARY KEY,
    kind             VARCHAR(10)    NOT NULL,
    user_id          VARCHAR(64)    NOT NULL,
    requested_amount NUMERIC(20, 3) NOT NULL CHECK (requested_amount > 0),
    approved_amount  NUMERIC(20, 3) NOT NULL DEFAULT 0,
    status           VARCHAR(10)    NOT NULL DEFAULT 'PENDING',
    payout_method    VARCHAR(32),
    bank_name        VARCHAR(128),
    account_name     VARCHAR(128),
    account_number   VARCHAR(64),
    reference        VARCHAR(128),
    receipt_ref      VARCHAR(128),
    admin_note       TEXT,
    created_at       TIMESTAMPTZ    NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ    NOT NULL DEFAULT now(),
    CONSTRAINT withdrawal_requests_status_check
        CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED')),
    CONSTRAINT withdrawal_requests_account_fk
        FOREIGN KEY (kind, user_id) REFERENCES wallet_accounts (kind, user_id)
);

CREATE INDEX idx_withdrawal_requests_pending
    ON withdrawal_requests (kind, user_id) WHERE status = 'PENDING';

CREATE INDEX idx_withdrawal_requests_listing
    ON withdrawal_requests (kind, created_at DESC);

CREATE TABLE users (
    user_id VARCHAR(64)  PRIMARY KEY,
    name    VARCHAR(128) NOT NULL DEFAULT '',
    phone   VARCHAR(32)  NOT NULL DEFAULT ''
);
`
