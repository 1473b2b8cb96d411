package services_test

import (
	"context"
	"testing"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type WithdrawalServiceTestSuite struct {
	suite.Suite
	mockAccounts    *MockAccountRepository
	mockTxns        *MockTransactionRepository
	mockWithdrawals *MockWithdrawalRepository
	mockDirectory   *MockUserDirectory
	service         portssvc.WithdrawalSvcFacade
	userID          string
	payout          domain.PayoutDetails
}

func (suite *WithdrawalServiceTestSuite) SetupTest() {
	suite.mockAccounts = new(MockAccountRepository)
	suite.mockTxns = new(MockTransactionRepository)
	suite.mockWithdrawals = new(MockWithdrawalRepository)
	suite.mockDirectory = new(MockUserDirectory)
	suite.service = services.NewWithdrawalService(domain.KindUser, suite.mockAccounts, suite.mockTxns, suite.mockWithdrawals, suite.mockDirectory)

	suite.userID = uuid.NewString()
	suite.payout = domain.PayoutDetails{
		Method:        "mobile_money",
		BankName:      "M-Pesa",
		AccountName:   "Asha Juma",
		AccountNumber: "255712345678",
	}
}

func (suite *WithdrawalServiceTestSuite) expectUnitOfWork() {
	suite.mockAccounts.On("Begin", mock.Anything).Return(nil, nil)
	suite.mockAccounts.On("Rollback", mock.Anything, mock.Anything).Return(nil)
}

func (suite *WithdrawalServiceTestSuite) lockedAccount(balance int64) map[string]domain.Account {
	return map[string]domain.Account{
		suite.userID: {
			UserID:        suite.userID,
			Kind:          domain.KindUser,
			AccountNumber: "255712345678",
			Balance:       decimal.NewFromInt(balance),
		},
	}
}

func (suite *WithdrawalServiceTestSuite) pendingWithdrawal(requested int64) *domain.Withdrawal {
	return &domain.Withdrawal{
		WithdrawalID:    uuid.NewString(),
		UserID:          suite.userID,
		Kind:            domain.KindUser,
		RequestedAmount: decimal.NewFromInt(requested),
		Status:          domain.WithdrawalPending,
		Payout:          suite.payout,
	}
}

// --- CreateWithdrawal ---

func (suite *WithdrawalServiceTestSuite) TestCreateWithdrawal_Success() {
	ctx := context.Background()
	amount := decimal.NewFromInt(400)

	suite.expectUnitOfWork()
	suite.mockAccounts.On("LockAccountsForUpdate", ctx, nil, domain.KindUser, []string{suite.userID}).Return(suite.lockedAccount(1000), nil).Once()
	suite.mockWithdrawals.On("SumPendingInTx", ctx, nil, domain.KindUser, suite.userID).Return(decimal.NewFromInt(500), nil).Once()
	suite.mockWithdrawals.On("SaveWithdrawalInTx", ctx, nil, mock.MatchedBy(func(w domain.Withdrawal) bool {
		return w.Status == domain.WithdrawalPending &&
			w.RequestedAmount.Equal(amount) &&
			w.ApprovedAmount.IsZero() &&
			w.Payout == suite.payout
	})).Return(nil).Once()
	suite.mockAccounts.On("Commit", ctx, nil).Return(nil).Once()

	withdrawal, err := suite.service.CreateWithdrawal(ctx, suite.userID, amount, suite.payout)

	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalPending, withdrawal.Status)
	suite.NotEmpty(withdrawal.WithdrawalID)
	suite.mockWithdrawals.AssertExpectations(suite.T())
	suite.mockAccounts.AssertExpectations(suite.T())
}

func (suite *WithdrawalServiceTestSuite) TestCreateWithdrawal_ExceedsAvailable() {
	ctx := context.Background()
	// Balance 1000 with 700 already reserved leaves 300 available.
	suite.expectUnitOfWork()
	suite.mockAccounts.On("LockAccountsForUpdate", ctx, nil, domain.KindUser, []string{suite.userID}).Return(suite.lockedAccount(1000), nil).Once()
	suite.mockWithdrawals.On("SumPendingInTx", ctx, nil, domain.KindUser, suite.userID).Return(decimal.NewFromInt(700), nil).Once()

	_, err := suite.service.CreateWithdrawal(ctx, suite.userID, decimal.NewFromInt(400), suite.payout)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientAvailableBalance)
	suite.mockWithdrawals.AssertNotCalled(suite.T(), "SaveWithdrawalInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WithdrawalServiceTestSuite) TestCreateWithdrawal_InvalidAmount() {
	ctx := context.Background()

	_, err := suite.service.CreateWithdrawal(ctx, suite.userID, decimal.NewFromInt(-5), suite.payout)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockAccounts.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *WithdrawalServiceTestSuite) TestCreateWithdrawal_AccountNotFound() {
	ctx := context.Background()

	suite.expectUnitOfWork()
	suite.mockAccounts.On("LockAccountsForUpdate", ctx, nil, domain.KindUser, []string{suite.userID}).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateWithdrawal(ctx, suite.userID, decimal.NewFromInt(10), suite.payout)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
}

// --- ApproveWithdrawal ---

func (suite *WithdrawalServiceTestSuite) TestApproveWithdrawal_FullAmount() {
	ctx := context.Background()
	pending := suite.pendingWithdrawal(400)

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, pending.WithdrawalID).Return(pending, nil).Once()
	suite.mockAccounts.On("LockAccountsForUpdate", ctx, nil, domain.KindUser, []string{suite.userID}).Return(suite.lockedAccount(1000), nil).Once()
	// The 400 pending figure is this request's own reservation.
	suite.mockWithdrawals.On("SumPendingInTx", ctx, nil, domain.KindUser, suite.userID).Return(decimal.NewFromInt(400), nil).Once()
	suite.mockAccounts.On("ApplyBalanceDeltasInTx", ctx, nil, domain.KindUser, mock.MatchedBy(func(deltas map[string]decimal.Decimal) bool {
		return deltas[suite.userID].Equal(decimal.NewFromInt(-400))
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockTxns.On("AppendTransactionInTx", ctx, nil, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Type == domain.Withdraw &&
			txn.Amount.Equal(decimal.NewFromInt(400)) &&
			txn.BalanceAfter.Equal(decimal.NewFromInt(600))
	})).Return(nil).Once()
	suite.mockAccounts.On("AddCountersInTx", ctx, nil, domain.KindUser, suite.userID, decimal.Zero, decimal.NewFromInt(400), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockWithdrawals.On("ResolveWithdrawalInTx", ctx, nil, pending.WithdrawalID, domain.WithdrawalApproved, decimal.NewFromInt(400), "ok", "RCPT-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAccounts.On("Commit", ctx, nil).Return(nil).Once()

	withdrawal, err := suite.service.ApproveWithdrawal(ctx, pending.WithdrawalID, nil, "ok", "RCPT-1")

	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalApproved, withdrawal.Status)
	suite.True(withdrawal.ApprovedAmount.Equal(decimal.NewFromInt(400)))
	suite.Equal("RCPT-1", withdrawal.Payout.ReceiptRef)
	suite.mockWithdrawals.AssertExpectations(suite.T())
	suite.mockAccounts.AssertExpectations(suite.T())
}

func (suite *WithdrawalServiceTestSuite) TestApproveWithdrawal_PartialAmount() {
	ctx := context.Background()
	pending := suite.pendingWithdrawal(400)
	partial := decimal.NewFromInt(250)

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, pending.WithdrawalID).Return(pending, nil).Once()
	suite.mockAccounts.On("LockAccountsForUpdate", ctx, nil, domain.KindUser, []string{suite.userID}).Return(suite.lockedAccount(1000), nil).Once()
	suite.mockWithdrawals.On("SumPendingInTx", ctx, nil, domain.KindUser, suite.userID).Return(decimal.NewFromInt(400), nil).Once()
	suite.mockAccounts.On("ApplyBalanceDeltasInTx", ctx, nil, domain.KindUser, mock.MatchedBy(func(deltas map[string]decimal.Decimal) bool {
		return deltas[suite.userID].Equal(partial.Neg())
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockTxns.On("AppendTransactionInTx", ctx, nil, mock.Anything).Return(nil).Once()
	suite.mockAccounts.On("AddCountersInTx", ctx, nil, domain.KindUser, suite.userID, decimal.Zero, partial, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockWithdrawals.On("ResolveWithdrawalInTx", ctx, nil, pending.WithdrawalID, domain.WithdrawalApproved, partial, "", "", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAccounts.On("Commit", ctx, nil).Return(nil).Once()

	withdrawal, err := suite.service.ApproveWithdrawal(ctx, pending.WithdrawalID, &partial, "", "")

	suite.Require().NoError(err)
	suite.True(withdrawal.ApprovedAmount.Equal(partial))
}

func (suite *WithdrawalServiceTestSuite) TestApproveWithdrawal_OverCap() {
	ctx := context.Background()
	pending := suite.pendingWithdrawal(400)
	// Balance 500, other requests hold 300: approvable at most
	// 500 - 700 + 400 = 200.
	over := decimal.NewFromInt(300)

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, pending.WithdrawalID).Return(pending, nil).Once()
	suite.mockAccounts.On("LockAccountsForUpdate", ctx, nil, domain.KindUser, []string{suite.userID}).Return(suite.lockedAccount(500), nil).Once()
	suite.mockWithdrawals.On("SumPendingInTx", ctx, nil, domain.KindUser, suite.userID).Return(decimal.NewFromInt(700), nil).Once()

	_, err := suite.service.ApproveWithdrawal(ctx, pending.WithdrawalID, &over, "", "")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientAvailableBalance)
	suite.mockAccounts.AssertNotCalled(suite.T(), "ApplyBalanceDeltasInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WithdrawalServiceTestSuite) TestApproveWithdrawal_AlreadyProcessed() {
	ctx := context.Background()
	resolved := suite.pendingWithdrawal(400)
	resolved.Status = domain.WithdrawalApproved

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, resolved.WithdrawalID).Return(resolved, nil).Once()

	_, err := suite.service.ApproveWithdrawal(ctx, resolved.WithdrawalID, nil, "", "")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadyProcessed)
	suite.mockAccounts.AssertNotCalled(suite.T(), "LockAccountsForUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WithdrawalServiceTestSuite) TestApproveWithdrawal_WrongKind() {
	ctx := context.Background()
	agentRequest := suite.pendingWithdrawal(400)
	agentRequest.Kind = domain.KindAgent

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, agentRequest.WithdrawalID).Return(agentRequest, nil).Once()

	_, err := suite.service.ApproveWithdrawal(ctx, agentRequest.WithdrawalID, nil, "", "")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- RejectWithdrawal ---

func (suite *WithdrawalServiceTestSuite) TestRejectWithdrawal_Success() {
	ctx := context.Background()
	pending := suite.pendingWithdrawal(400)

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, pending.WithdrawalID).Return(pending, nil).Once()
	suite.mockWithdrawals.On("ResolveWithdrawalInTx", ctx, nil, pending.WithdrawalID, domain.WithdrawalRejected, decimal.Zero, "fraud check failed", "", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAccounts.On("Commit", ctx, nil).Return(nil).Once()

	withdrawal, err := suite.service.RejectWithdrawal(ctx, pending.WithdrawalID, "fraud check failed")

	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalRejected, withdrawal.Status)
	suite.Equal("fraud check failed", withdrawal.AdminNote)
	// Rejection never touches the balance.
	suite.mockAccounts.AssertNotCalled(suite.T(), "ApplyBalanceDeltasInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockWithdrawals.AssertExpectations(suite.T())
}

func (suite *WithdrawalServiceTestSuite) TestRejectWithdrawal_AlreadyProcessed() {
	ctx := context.Background()
	resolved := suite.pendingWithdrawal(400)
	resolved.Status = domain.WithdrawalRejected

	suite.expectUnitOfWork()
	suite.mockWithdrawals.On("LockWithdrawalForUpdate", ctx, nil, resolved.WithdrawalID).Return(resolved, nil).Once()

	_, err := suite.service.RejectWithdrawal(ctx, resolved.WithdrawalID, "")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadyProcessed)
}

// --- GetWithdrawal ---

func (suite *WithdrawalServiceTestSuite) TestGetWithdrawal_WrongKindHidden() {
	ctx := context.Background()
	agentRequest := suite.pendingWithdrawal(100)
	agentRequest.Kind = domain.KindAgent

	suite.mockWithdrawals.On("FindWithdrawal", ctx, agentRequest.WithdrawalID).Return(agentRequest, nil).Once()

	_, err := suite.service.GetWithdrawal(ctx, agentRequest.WithdrawalID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- ListWithdrawals ---

func (suite *WithdrawalServiceTestSuite) TestListWithdrawals_EnrichesOwner() {
	ctx := context.Background()
	otherUserID := uuid.NewString()
	first := *suite.pendingWithdrawal(100)
	second := *suite.pendingWithdrawal(200)
	second.UserID = otherUserID

	status := domain.WithdrawalPending
	filter := portsrepo.WithdrawalFilter{Status: &status, Limit: 20}
	// The service forces its own kind onto the filter.
	scoped := filter
	scoped.Kind = domain.KindUser

	suite.mockWithdrawals.On("ListWithdrawals", ctx, scoped).Return([]domain.Withdrawal{first, second}, nil).Once()
	suite.mockDirectory.On("Resolve", ctx, suite.userID).Return(&domain.UserIdentity{UserID: suite.userID, Name: "Asha"}, nil).Once()
	suite.mockDirectory.On("Resolve", ctx, otherUserID).Return(nil, apperrors.ErrNotFound).Once()

	listings, err := suite.service.ListWithdrawals(ctx, filter)

	suite.Require().NoError(err)
	suite.Require().Len(listings, 2)
	suite.Require().NotNil(listings[0].Owner)
	suite.Equal("Asha", listings[0].Owner.Name)
	// Directory miss degrades to an id-only row.
	suite.Nil(listings[1].Owner)
	suite.mockWithdrawals.AssertExpectations(suite.T())
}

func TestWithdrawalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WithdrawalServiceTestSuite))
}
