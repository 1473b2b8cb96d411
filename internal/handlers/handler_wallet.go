package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/dto"
	"github.com/bizlink/walletd/internal/middleware"
	"github.com/gin-gonic/gin"
)

// walletHandler handles HTTP requests for one wallet instance. The user and
// agent wallets each get their own handler over their own engine.
type walletHandler struct {
	walletService portssvc.WalletSvcFacade
}

// newWalletHandler creates a new walletHandler.
func newWalletHandler(ws portssvc.WalletSvcFacade) *walletHandler {
	return &walletHandler{walletService: ws}
}

// registerWalletRoutes registers the wallet routes under the given group.
// The mutating routes carry the rate limit middleware.
func registerWalletRoutes(rg *gin.RouterGroup, walletService portssvc.WalletSvcFacade, rateLimit gin.HandlerFunc) {
	h := newWalletHandler(walletService)

	rg.GET("/balance", h.getBalance)
	rg.GET("/transactions", h.listTransactions)
	rg.GET("/transactions/:id", h.getTransactionDetail)

	rg.POST("/account", rateLimit, h.ensureAccount)
	rg.POST("/deposit", rateLimit, h.deposit)
	rg.POST("/withdraw", rateLimit, h.withdraw)
	rg.POST("/transfer", rateLimit, h.transfer)
}

// ensureAccount godoc
// @Summary Open or fetch the caller's wallet
// @Description Returns the caller's wallet, creating it with a zero balance on first use. The account number is derived from the supplied phone number.
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   account body dto.EnsureAccountRequest true "Account details"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /wallet/account [post]
func (h *walletHandler) ensureAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EnsureAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EnsureAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	account, err := h.walletService.EnsureAccount(c.Request.Context(), userID, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getBalance godoc
// @Summary Get the caller's balance
// @Description Returns the raw balance, the total held by pending withdrawal requests, and the available balance.
// @Tags wallet
// @Produce  json
// @Success 200 {object} dto.BalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /wallet/balance [get]
func (h *walletHandler) getBalance(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	details, err := h.walletService.AvailableBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(details))
}

// deposit godoc
// @Summary Credit the caller's wallet
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   deposit body dto.DepositRequest true "Deposit details"
// @Success 200 {object} dto.OperationResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Account not found"
// @Security BearerAuth
// @Router /wallet/deposit [post]
func (h *walletHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.walletService.Deposit(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Deposit applied",
		slog.String("transaction_id", result.Transaction.TransactionID),
		slog.String("amount", req.Amount.String()),
	)
	c.JSON(http.StatusOK, dto.ToOperationResponse(result))
}

// withdraw godoc
// @Summary Debit the caller's wallet
// @Description Debits the wallet after checking the available balance (raw balance minus pending withdrawal requests).
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   withdraw body dto.WithdrawRequest true "Withdraw details"
// @Success 200 {object} dto.OperationResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Insufficient balance"
// @Security BearerAuth
// @Router /wallet/withdraw [post]
func (h *walletHandler) withdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Withdraw", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.walletService.Withdraw(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Withdrawal applied",
		slog.String("transaction_id", result.Transaction.TransactionID),
		slog.String("amount", req.Amount.String()),
	)
	c.JSON(http.StatusOK, dto.ToOperationResponse(result))
}

// transfer godoc
// @Summary Transfer funds to another wallet
// @Description Moves funds to the wallet addressed by account number. Both balances and both transaction records are written atomically.
// @Tags wallet
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer details"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string "Invalid amount or self transfer"
// @Failure 404 {object} map[string]string "Receiver not found"
// @Failure 422 {object} map[string]string "Insufficient available balance"
// @Security BearerAuth
// @Router /wallet/transfer [post]
func (h *walletHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.walletService.Transfer(c.Request.Context(), userID, req.ToAccountNumber, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Transfer applied",
		slog.String("out_transaction_id", result.OutTransaction.TransactionID),
		slog.String("amount", req.Amount.String()),
	)
	c.JSON(http.StatusOK, dto.ToTransferResponse(result))
}

// listTransactions godoc
// @Summary List the caller's transactions
// @Description Returns the wallet's transaction history, newest first.
// @Tags wallet
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /wallet/transactions [get]
func (h *walletHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	txns, err := h.walletService.ListTransactions(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{Transactions: dto.ToListTransactionResponse(txns)})
}

// getTransactionDetail godoc
// @Summary Get one transaction with resolved parties
// @Description Returns a single transaction with sender and receiver identity resolved where possible.
// @Tags wallet
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionDetailResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /wallet/transactions/{id} [get]
func (h *walletHandler) getTransactionDetail(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	detail, err := h.walletService.GetTransactionDetail(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionDetailResponse(detail))
}
