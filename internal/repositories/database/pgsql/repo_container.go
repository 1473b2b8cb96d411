package pgsql

import (
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryContainer bundles every repository implementation over one pool.
type RepositoryContainer struct {
	Accounts     portsrepo.AccountRepositoryWithTx
	Transactions portsrepo.TransactionRepository
	Withdrawals  portsrepo.WithdrawalRepository
	Reporting    portsrepo.ReportingRepository
	Directory    portssvc.UserDirectory
}

// NewRepositoryContainer constructs all repositories over the given pool.
func NewRepositoryContainer(pool *pgxpool.Pool) *RepositoryContainer {
	return &RepositoryContainer{
		Accounts:     NewAccountRepository(pool),
		Transactions: NewTransactionRepository(pool),
		Withdrawals:  NewWithdrawalRepository(pool),
		Reporting:    NewReportingRepository(pool),
		Directory:    NewUserDirectory(pool),
	}
}
