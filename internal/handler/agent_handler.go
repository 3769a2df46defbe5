// internal/handler/agent_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"commission-ledger/internal/models"
	"commission-ledger/internal/service"
)

type AgentHandler struct {
	ledger *service.LedgerService
	wallet *service.WalletService
	logger *zap.Logger
}

func NewAgentHandler(ledger *service.LedgerService, wallet *service.WalletService, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		ledger: ledger,
		wallet: wallet,
		logger: logger,
	}
}

// CommissionSummary handles GET /api/v1/agents/:id/commission-summary
//
// Dashboard figures; served from the short-lived cache when possible. A
// degraded=true response means the aggregation was unavailable and the
// figures came from the agent's cached counters. fresh=true forces a direct
// read that either returns exact figures or fails.
func (h *AgentHandler) CommissionSummary(c *gin.Context) {
	fresh := c.Query("fresh") == "true"
	summary, err := h.ledger.CommissionSummary(c.Request.Context(), c.Param("id"), fresh)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent_id":              summary.AgentID,
		"available_commissions": models.FromMinorUnits(summary.AvailableCommissions),
		"total_commissions":     models.FromMinorUnits(summary.TotalCommissions),
		"degraded":              summary.Degraded,
		"computed_at":           summary.ComputedAt.Format(timeLayout),
	})
}

type walletMutationRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	ReferenceCode string  `json:"reference_code" binding:"required"`
	Description   string  `json:"description"`
}

// Topup handles POST /api/v1/agents/:id/wallet/topup
func (h *AgentHandler) Topup(c *gin.Context) {
	var req walletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": service.CodeValidation, "message": err.Error()})
		return
	}

	txn, err := h.wallet.Topup(c.Request.Context(), service.WalletMutationInput{
		AgentID:       c.Param("id"),
		Amount:        models.ToMinorUnits(req.Amount),
		ReferenceCode: req.ReferenceCode,
		Description:   req.Description,
		Caller:        caller(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": toWalletTxView(txn)})
}

// Debit handles POST /api/v1/agents/:id/wallet/debit
func (h *AgentHandler) Debit(c *gin.Context) {
	var req walletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": service.CodeValidation, "message": err.Error()})
		return
	}

	txn, err := h.wallet.Debit(c.Request.Context(), service.WalletMutationInput{
		AgentID:       c.Param("id"),
		Amount:        models.ToMinorUnits(req.Amount),
		ReferenceCode: req.ReferenceCode,
		Description:   req.Description,
		Caller:        caller(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": toWalletTxView(txn)})
}

// WalletHistory handles GET /api/v1/agents/:id/wallet/transactions
func (h *AgentHandler) WalletHistory(c *gin.Context) {
	txns, err := h.wallet.History(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	views := make([]walletTxView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, toWalletTxView(txn))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": views})
}
