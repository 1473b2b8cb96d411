package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/dto"
	"github.com/bizlink/walletd/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler handles the back-office routes: payout approval across both
// wallet kinds and the aggregate summary.
type adminHandler struct {
	userWithdrawals  portssvc.WithdrawalSvcFacade
	agentWithdrawals portssvc.WithdrawalSvcFacade
	reportingService portssvc.ReportingSvcFacade
}

// newAdminHandler creates a new adminHandler.
func newAdminHandler(user, agent portssvc.WithdrawalSvcFacade, reporting portssvc.ReportingSvcFacade) *adminHandler {
	return &adminHandler{
		userWithdrawals:  user,
		agentWithdrawals: agent,
		reportingService: reporting,
	}
}

// registerAdminRoutes registers the admin routes under the given group.
// The group must already carry AuthMiddleware and RequireAdmin.
func registerAdminRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newAdminHandler(services.UserWithdrawals, services.AgentWithdrawals, services.Reporting)

	withdrawals := rg.Group("/withdrawals")
	{
		withdrawals.GET("", h.listWithdrawals)
		withdrawals.GET("/:id", h.getWithdrawal)
		withdrawals.POST("/:id/approve", h.approveWithdrawal)
		withdrawals.POST("/:id/reject", h.rejectWithdrawal)
	}

	rg.GET("/wallets/summary", h.getSummary)
}

// serviceFor picks the withdrawal workflow matching the kind query param.
// The user wallet is the default; an unknown kind is a client error.
func (h *adminHandler) serviceFor(c *gin.Context) (portssvc.WithdrawalSvcFacade, bool) {
	kind := domain.AccountKind(c.DefaultQuery("kind", string(domain.KindUser)))
	switch kind {
	case domain.KindUser:
		return h.userWithdrawals, true
	case domain.KindAgent:
		return h.agentWithdrawals, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown account kind: " + string(kind)})
	return nil, false
}

// listWithdrawals godoc
// @Summary List payout requests
// @Description Returns payout requests for one wallet kind, newest first, with the owner's identity resolved where possible.
// @Tags admin
// @Produce  json
// @Param   kind query string false "Wallet kind" Enums(USER, AGENT) default(USER)
// @Param   status query string false "Filter by status" Enums(PENDING, APPROVED, REJECTED)
// @Param   userID query string false "Filter by owner"
// @Param   search query string false "Match against owner id and payout coordinates"
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListWithdrawalsResponse
// @Failure 403 {object} map[string]string "Admin role required"
// @Security BearerAuth
// @Router /admin/withdrawals [get]
func (h *adminHandler) listWithdrawals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListWithdrawalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for admin ListWithdrawals", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	filter := portsrepo.WithdrawalFilter{
		Search: params.Search,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Status != "" {
		status := domain.WithdrawalStatus(params.Status)
		filter.Status = &status
	}
	if params.UserID != "" {
		filter.UserID = &params.UserID
	}

	listings, err := svc.ListWithdrawals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListWithdrawalsResponse{Withdrawals: dto.ToListWithdrawalResponse(listings)})
}

// getWithdrawal godoc
// @Summary Get one payout request
// @Tags admin
// @Produce  json
// @Param   id path string true "Withdrawal ID"
// @Param   kind query string false "Wallet kind" Enums(USER, AGENT) default(USER)
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} map[string]string "Withdrawal not found"
// @Security BearerAuth
// @Router /admin/withdrawals/{id} [get]
func (h *adminHandler) getWithdrawal(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	withdrawal, err := svc.GetWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(withdrawal))
}

// approveWithdrawal godoc
// @Summary Approve a pending payout request
// @Description Resolves the request as approved and debits the owner's wallet in the same unit of work. The approved amount defaults to the requested amount and may be set lower.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   id path string true "Withdrawal ID"
// @Param   kind query string false "Wallet kind" Enums(USER, AGENT) default(USER)
// @Param   approval body dto.ApproveWithdrawalRequest false "Approval details"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} map[string]string "Withdrawal not found"
// @Failure 409 {object} map[string]string "Already processed"
// @Failure 422 {object} map[string]string "Amount exceeds the approvable maximum"
// @Security BearerAuth
// @Router /admin/withdrawals/{id}/approve [post]
func (h *adminHandler) approveWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ApproveWithdrawalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for ApproveWithdrawal", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	withdrawal, err := svc.ApproveWithdrawal(c.Request.Context(), c.Param("id"), req.Amount, req.AdminNote, req.ReceiptRef)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(withdrawal))
}

// rejectWithdrawal godoc
// @Summary Reject a pending payout request
// @Description Resolves the request as rejected, releasing the held funds with no balance effect.
// @Tags admin
// @Accept  json
// @Produce  json
// @Param   id path string true "Withdrawal ID"
// @Param   kind query string false "Wallet kind" Enums(USER, AGENT) default(USER)
// @Param   rejection body dto.RejectWithdrawalRequest true "Rejection details"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} map[string]string "Withdrawal not found"
// @Failure 409 {object} map[string]string "Already processed"
// @Security BearerAuth
// @Router /admin/withdrawals/{id}/reject [post]
func (h *adminHandler) rejectWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RejectWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	withdrawal, err := svc.RejectWithdrawal(c.Request.Context(), c.Param("id"), req.AdminNote)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(withdrawal))
}

// getSummary godoc
// @Summary Aggregate wallet summary
// @Description Returns per-kind account counts, total balances, pending payout totals and cumulative withdrawals.
// @Tags admin
// @Produce  json
// @Success 200 {object} dto.SummaryResponse
// @Failure 403 {object} map[string]string "Admin role required"
// @Security BearerAuth
// @Router /admin/wallets/summary [get]
func (h *adminHandler) getSummary(c *gin.Context) {
	summary, err := h.reportingService.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSummaryResponse(summary))
}
