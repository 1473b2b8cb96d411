package pgsql_test

import (
	"context"
	"testing"
	"time"

	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	"github.com/bizlink/walletd/internal/repositories/database/pgsql"
	"github.com/bizlink/walletd/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func insertPendingWithdrawal(ctx context.Context, t *testing.T, repos *pgsql.RepositoryContainer, userID string, payout domain.PayoutDetails) domain.Withdrawal {
	t.Helper()
	now := time.Now().UTC()
	w := domain.Withdrawal{
		WithdrawalID:    uuid.NewString(),
		Kind:            domain.KindUser,
		UserID:          userID,
		RequestedAmount: decimal.NewFromInt(100),
		ApprovedAmount:  decimal.Zero,
		Status:          domain.WithdrawalPending,
		Payout:          payout,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := repos.Accounts.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repos.Withdrawals.SaveWithdrawalInTx(ctx, tx, w))
	require.NoError(t, repos.Accounts.Commit(ctx, tx))
	return w
}

func TestListWithdrawals_SearchMatchesOwnerIdentity(t *testing.T) {
	pool, teardown := testutil.SetupTestDB(t)
	defer teardown()
	ctx := context.Background()
	repos := pgsql.NewRepositoryContainer(pool)

	// user-a is known to the directory; user-b has no identity row.
	testutil.SeedUser(ctx, t, pool, "user-a", "Asha Mkapa", "255712345678")
	_, err := repos.Accounts.EnsureAccount(ctx, domain.KindUser, "user-a", "255712345678")
	require.NoError(t, err)
	_, err = repos.Accounts.EnsureAccount(ctx, domain.KindUser, "user-b", "255798765432")
	require.NoError(t, err)

	holdA := insertPendingWithdrawal(ctx, t, repos, "user-a", domain.PayoutDetails{
		Method:      "BANK_TRANSFER",
		BankName:    "CRDB",
		AccountName: "Asha Mkapa",
	})
	holdB := insertPendingWithdrawal(ctx, t, repos, "user-b", domain.PayoutDetails{
		Method:   "BANK_TRANSFER",
		BankName: "Equity",
	})

	// Directory name, stored only in the users table.
	got, err := repos.Withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{Kind: domain.KindUser, Search: "Mkapa"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, holdA.WithdrawalID, got[0].WithdrawalID)

	// Directory phone fragment.
	got, err = repos.Withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{Kind: domain.KindUser, Search: "712345"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, holdA.WithdrawalID, got[0].WithdrawalID)

	// Payout coordinates still match for an owner the directory does not
	// know; the join must not drop the row.
	got, err = repos.Withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{Kind: domain.KindUser, Search: "Equity"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, holdB.WithdrawalID, got[0].WithdrawalID)

	// No search term lists everything, directory row or not.
	got, err = repos.Withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{Kind: domain.KindUser})
	require.NoError(t, err)
	require.Len(t, got, 2)
}
