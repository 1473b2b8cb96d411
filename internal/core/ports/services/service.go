package services

// ServiceContainer bundles every service facade the HTTP layer needs.
// The user and agent wallets are two instances of the same engine,
// constructed with different account kinds.
type ServiceContainer struct {
	UserWallet       WalletSvcFacade
	AgentWallet      WalletSvcFacade
	UserWithdrawals  WithdrawalSvcFacade
	AgentWithdrawals WithdrawalSvcFacade
	Reporting        ReportingSvcFacade
	Directory        UserDirectory
}
