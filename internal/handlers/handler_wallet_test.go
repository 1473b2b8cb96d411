package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/handlers"
	"github.com/bizlink/walletd/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// --- Mock WalletService ---
type MockWalletService struct {
	mock.Mock
}

var _ portssvc.WalletSvcFacade = (*MockWalletService)(nil)

func (m *MockWalletService) EnsureAccount(ctx context.Context, userID string, phone string) (*domain.Account, error) {
	args := m.Called(ctx, userID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockWalletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*domain.OperationResult, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperationResult), args.Error(1)
}

func (m *MockWalletService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, description string) (*domain.OperationResult, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperationResult), args.Error(1)
}

func (m *MockWalletService) Transfer(ctx context.Context, fromUserID string, toAccountNumber string, amount decimal.Decimal, description string) (*domain.TransferResult, error) {
	args := m.Called(ctx, fromUserID, toAccountNumber, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferResult), args.Error(1)
}

func (m *MockWalletService) AvailableBalance(ctx context.Context, userID string) (*domain.BalanceDetails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceDetails), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockWalletService) GetTransactionDetail(ctx context.Context, userID string, transactionID string) (*domain.TransactionDetail, error) {
	args := m.Called(ctx, userID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionDetail), args.Error(1)
}

// --- Mock WithdrawalService ---
type MockWithdrawalService struct {
	mock.Mock
}

var _ portssvc.WithdrawalSvcFacade = (*MockWithdrawalService)(nil)

func (m *MockWithdrawalService) CreateWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, payout domain.PayoutDetails) (*domain.Withdrawal, error) {
	args := m.Called(ctx, userID, amount, payout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID string, approvedAmount *decimal.Decimal, adminNote, receiptRef string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID, approvedAmount, adminNote, receiptRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID string, adminNote string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID, adminNote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.WithdrawalListing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WithdrawalListing), args.Error(1)
}

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

var _ portssvc.ReportingSvcFacade = (*MockReportingService)(nil)

func (m *MockReportingService) Summary(ctx context.Context) (*domain.WalletSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletSummary), args.Error(1)
}

// --- Test Suite ---
type WalletHandlerTestSuite struct {
	suite.Suite
	router               *gin.Engine
	mockUserWallet       *MockWalletService
	mockAgentWallet      *MockWalletService
	mockUserWithdrawals  *MockWithdrawalService
	mockAgentWithdrawals *MockWithdrawalService
	mockReporting        *MockReportingService
	jwtSecret            string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *WalletHandlerTestSuite) generateTestToken(userID, role string) string {
	claims := jwt.MapClaims{
		"iss":  "walletd-test",
		"sub":  userID,
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":  jwt.NewNumericDate(time.Now()),
		"role": role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *WalletHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockUserWallet = new(MockWalletService)
	suite.mockAgentWallet = new(MockWalletService)
	suite.mockUserWithdrawals = new(MockWithdrawalService)
	suite.mockAgentWithdrawals = new(MockWithdrawalService)
	suite.mockReporting = new(MockReportingService)

	cfg := &config.Config{
		JWTSecret:    suite.jwtSecret,
		IsProduction: true, // no swagger routes in tests
	}
	services := &portssvc.ServiceContainer{
		UserWallet:       suite.mockUserWallet,
		AgentWallet:      suite.mockAgentWallet,
		UserWithdrawals:  suite.mockUserWithdrawals,
		AgentWithdrawals: suite.mockAgentWithdrawals,
		Reporting:        suite.mockReporting,
	}
	rate, _ := limiter.NewRateFromFormatted("1000-M")
	handlers.RegisterRoutes(suite.router, cfg, services, limiter.New(limitermem.NewStore(), rate))
}

func (suite *WalletHandlerTestSuite) doJSON(method, url, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *WalletHandlerTestSuite) TestDeposit_Success() {
	userID := uuid.NewString()
	amount := decimal.NewFromInt(500)
	result := &domain.OperationResult{
		Account: domain.Account{
			UserID:        userID,
			Kind:          domain.KindUser,
			AccountNumber: "255712345678",
			Balance:       decimal.NewFromInt(1500),
		},
		Transaction: domain.Transaction{
			TransactionID: uuid.NewString(),
			UserID:        userID,
			Kind:          domain.KindUser,
			Type:          domain.Deposit,
			Amount:        amount,
		},
	}

	suite.mockUserWallet.On("Deposit", mock.Anything, userID, amount, "airtime sale").Return(result, nil).Once()

	token := suite.generateTestToken(userID, "user")
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/deposit", token, gin.H{
		"amount":      amount,
		"description": "airtime sale",
	})

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	account := resp["account"].(map[string]any)
	suite.Equal("1500", account["balance"])
	suite.mockUserWallet.AssertExpectations(suite.T())
}

func (suite *WalletHandlerTestSuite) TestDeposit_Unauthorized() {
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/deposit", "", gin.H{"amount": 100})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockUserWallet.AssertNotCalled(suite.T(), "Deposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestWithdraw_InsufficientBalance() {
	userID := uuid.NewString()
	amount := decimal.NewFromInt(9000)

	suite.mockUserWallet.On("Withdraw", mock.Anything, userID, amount, "").Return(nil, apperrors.ErrInsufficientBalance).Once()

	token := suite.generateTestToken(userID, "user")
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/withdraw", token, gin.H{"amount": amount})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *WalletHandlerTestSuite) TestGetBalance_AgentWalletRoutesToAgentEngine() {
	userID := uuid.NewString()
	details := &domain.BalanceDetails{
		UserID:             userID,
		Kind:               domain.KindAgent,
		Balance:            decimal.NewFromInt(1000),
		PendingWithdrawals: decimal.NewFromInt(400),
		Available:          decimal.NewFromInt(600),
	}

	suite.mockAgentWallet.On("AvailableBalance", mock.Anything, userID).Return(details, nil).Once()

	token := suite.generateTestToken(userID, "agent")
	w := suite.doJSON(http.MethodGet, "/api/v1/agent-wallet/balance", token, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("AGENT", resp["kind"])
	suite.Equal("600", resp["available"])
	suite.mockAgentWallet.AssertExpectations(suite.T())
	suite.mockUserWallet.AssertNotCalled(suite.T(), "AvailableBalance", mock.Anything, mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestGetBalance_ClampsNegativeAvailable() {
	userID := uuid.NewString()
	details := &domain.BalanceDetails{
		UserID:             userID,
		Kind:               domain.KindUser,
		Balance:            decimal.NewFromInt(100),
		PendingWithdrawals: decimal.NewFromInt(150),
		Available:          decimal.NewFromInt(-50),
	}

	suite.mockUserWallet.On("AvailableBalance", mock.Anything, userID).Return(details, nil).Once()

	token := suite.generateTestToken(userID, "user")
	w := suite.doJSON(http.MethodGet, "/api/v1/wallet/balance", token, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("0", resp["available"])
	suite.Equal("-50", resp["availableRaw"])
}

func (suite *WalletHandlerTestSuite) TestTransfer_SelfTransferRejected() {
	userID := uuid.NewString()
	amount := decimal.NewFromInt(100)

	suite.mockUserWallet.On("Transfer", mock.Anything, userID, "0712345678", amount, "").Return(nil, apperrors.ErrSelfTransfer).Once()

	token := suite.generateTestToken(userID, "user")
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/transfer", token, gin.H{
		"toAccountNumber": "0712345678",
		"amount":          amount,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *WalletHandlerTestSuite) TestCreateWithdrawal_Success() {
	userID := uuid.NewString()
	amount := decimal.NewFromInt(400)
	created := &domain.Withdrawal{
		WithdrawalID:    uuid.NewString(),
		UserID:          userID,
		Kind:            domain.KindUser,
		RequestedAmount: amount,
		Status:          domain.WithdrawalPending,
		Payout:          domain.PayoutDetails{Method: "MOBILE_MONEY", AccountNumber: "255712345678"},
	}

	suite.mockUserWithdrawals.On("CreateWithdrawal", mock.Anything, userID, amount, mock.MatchedBy(func(p domain.PayoutDetails) bool {
		return p.Method == "MOBILE_MONEY" && p.AccountNumber == "255712345678"
	})).Return(created, nil).Once()

	token := suite.generateTestToken(userID, "user")
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/withdrawals", token, gin.H{
		"amount":        amount,
		"method":        "MOBILE_MONEY",
		"accountNumber": "255712345678",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("PENDING", resp["status"])
	suite.mockUserWithdrawals.AssertExpectations(suite.T())
}

func (suite *WalletHandlerTestSuite) TestAdminSummary_RequiresAdminRole() {
	token := suite.generateTestToken(uuid.NewString(), "user")
	w := suite.doJSON(http.MethodGet, "/api/v1/admin/wallets/summary", token, nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockReporting.AssertNotCalled(suite.T(), "Summary", mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestAdminSummary_Success() {
	summary := &domain.WalletSummary{
		Kinds: []domain.KindSummary{
			{Kind: domain.KindUser, AccountCount: 12, TotalBalance: decimal.NewFromInt(5000)},
			{Kind: domain.KindAgent, AccountCount: 3, TotalBalance: decimal.NewFromInt(900)},
		},
	}
	suite.mockReporting.On("Summary", mock.Anything).Return(summary, nil).Once()

	token := suite.generateTestToken(uuid.NewString(), "admin")
	w := suite.doJSON(http.MethodGet, "/api/v1/admin/wallets/summary", token, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp["kinds"], 2)
}

func (suite *WalletHandlerTestSuite) TestAdminApprove_RoutesByKind() {
	withdrawalID := uuid.NewString()
	approved := &domain.Withdrawal{
		WithdrawalID:    withdrawalID,
		UserID:          uuid.NewString(),
		Kind:            domain.KindAgent,
		RequestedAmount: decimal.NewFromInt(300),
		ApprovedAmount:  decimal.NewFromInt(300),
		Status:          domain.WithdrawalApproved,
	}

	suite.mockAgentWithdrawals.On("ApproveWithdrawal", mock.Anything, withdrawalID, (*decimal.Decimal)(nil), "ok", "RCPT-9").Return(approved, nil).Once()

	token := suite.generateTestToken(uuid.NewString(), "admin")
	w := suite.doJSON(http.MethodPost, "/api/v1/admin/withdrawals/"+withdrawalID+"/approve?kind=AGENT", token, gin.H{
		"adminNote":  "ok",
		"receiptRef": "RCPT-9",
	})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockAgentWithdrawals.AssertExpectations(suite.T())
	suite.mockUserWithdrawals.AssertNotCalled(suite.T(), "ApproveWithdrawal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestAdminReject_AlreadyProcessed() {
	withdrawalID := uuid.NewString()

	suite.mockUserWithdrawals.On("RejectWithdrawal", mock.Anything, withdrawalID, "duplicate").Return(nil, apperrors.ErrAlreadyProcessed).Once()

	token := suite.generateTestToken(uuid.NewString(), "admin")
	w := suite.doJSON(http.MethodPost, "/api/v1/admin/withdrawals/"+withdrawalID+"/reject", token, gin.H{
		"adminNote": "duplicate",
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *WalletHandlerTestSuite) TestEnsureAccount_InvalidPhone() {
	token := suite.generateTestToken(uuid.NewString(), "user")
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/account", token, gin.H{"phone": "no digits here"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockUserWallet.AssertNotCalled(suite.T(), "EnsureAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WalletHandlerTestSuite))
}
