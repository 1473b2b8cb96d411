package handlers

import (
	"log/slog"
	"net/http"

	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/bizlink/walletd/internal/dto"
	"github.com/bizlink/walletd/internal/middleware"
	"github.com/gin-gonic/gin"
)

// withdrawalHandler handles the caller-facing payout request routes for one
// wallet instance.
type withdrawalHandler struct {
	withdrawalService portssvc.WithdrawalSvcFacade
}

// newWithdrawalHandler creates a new withdrawalHandler.
func newWithdrawalHandler(ws portssvc.WithdrawalSvcFacade) *withdrawalHandler {
	return &withdrawalHandler{withdrawalService: ws}
}

// registerWithdrawalRoutes registers the payout request routes under the
// given wallet group.
func registerWithdrawalRoutes(rg *gin.RouterGroup, withdrawalService portssvc.WithdrawalSvcFacade, rateLimit gin.HandlerFunc) {
	h := newWithdrawalHandler(withdrawalService)

	withdrawals := rg.Group("/withdrawals")
	{
		withdrawals.POST("", rateLimit, h.createWithdrawal)
		withdrawals.GET("", h.listOwnWithdrawals)
		withdrawals.GET("/:id", h.getOwnWithdrawal)
	}
}

// createWithdrawal godoc
// @Summary Request a payout
// @Description Opens a pending withdrawal request. The amount is held against the available balance until an admin approves or rejects the request.
// @Tags withdrawals
// @Accept  json
// @Produce  json
// @Param   withdrawal body dto.CreateWithdrawalRequest true "Withdrawal details"
// @Success 201 {object} dto.WithdrawalResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Insufficient available balance"
// @Security BearerAuth
// @Router /wallet/withdrawals [post]
func (h *withdrawalHandler) createWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	withdrawal, err := h.withdrawalService.CreateWithdrawal(c.Request.Context(), userID, req.Amount, req.ToPayoutDetails())
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Withdrawal request created",
		slog.String("withdrawal_id", withdrawal.WithdrawalID),
		slog.String("amount", req.Amount.String()),
	)
	c.JSON(http.StatusCreated, dto.ToWithdrawalResponse(withdrawal))
}

// listOwnWithdrawals godoc
// @Summary List the caller's payout requests
// @Tags withdrawals
// @Produce  json
// @Param   status query string false "Filter by status" Enums(PENDING, APPROVED, REJECTED)
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListWithdrawalsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /wallet/withdrawals [get]
func (h *withdrawalHandler) listOwnWithdrawals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListWithdrawalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for ListWithdrawals", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	filter := portsrepo.WithdrawalFilter{
		UserID: &userID,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Status != "" {
		status := domain.WithdrawalStatus(params.Status)
		filter.Status = &status
	}

	listings, err := h.withdrawalService.ListWithdrawals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListWithdrawalsResponse{Withdrawals: dto.ToListWithdrawalResponse(listings)})
}

// getOwnWithdrawal godoc
// @Summary Get one of the caller's payout requests
// @Tags withdrawals
// @Produce  json
// @Param   id path string true "Withdrawal ID"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} map[string]string "Withdrawal not found"
// @Security BearerAuth
// @Router /wallet/withdrawals/{id} [get]
func (h *withdrawalHandler) getOwnWithdrawal(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	withdrawal, err := h.withdrawalService.GetWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	// Callers only see their own requests.
	if withdrawal.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		return
	}

	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(withdrawal))
}
