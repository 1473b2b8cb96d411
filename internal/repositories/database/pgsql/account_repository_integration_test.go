package pgsql_test

import (
	"context"
	"testing"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/bizlink/walletd/internal/repositories/database/pgsql"
	"github.com/bizlink/walletd/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestFindAccountByNumberCompat(t *testing.T) {
	pool, teardown := testutil.SetupTestDB(t)
	defer teardown()
	ctx := context.Background()
	repos := pgsql.NewRepositoryContainer(pool)

	// Canonical row, looked up with a formatted input.
	_, err := repos.Accounts.EnsureAccount(ctx, domain.KindUser, "user-a", "255712345678")
	require.NoError(t, err)

	acc, err := repos.Accounts.FindAccountByNumberCompat(ctx, domain.KindUser, "+255 712 345 678")
	require.NoError(t, err)
	require.Equal(t, "user-a", acc.UserID)

	// Legacy row written before normalization became a write-time rule.
	_, err = pool.Exec(ctx, `
		INSERT INTO wallet_accounts (kind, user_id, account_number, balance, total_earned, total_withdrawn)
		VALUES ('USER', 'user-b', '+255798765432', 0, 0, 0);
	`)
	require.NoError(t, err)

	acc, err = repos.Accounts.FindAccountByNumberCompat(ctx, domain.KindUser, "+255798765432")
	require.NoError(t, err)
	require.Equal(t, "user-b", acc.UserID)

	// An input already in canonical form misses without a raw retry.
	_, err = repos.Accounts.FindAccountByNumberCompat(ctx, domain.KindUser, "255700000000")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
