// internal/handler/withdrawal_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"commission-ledger/internal/models"
	"commission-ledger/internal/service"
)

type WithdrawalHandler struct {
	service *service.WithdrawalService
	logger  *zap.Logger
}

func NewWithdrawalHandler(service *service.WithdrawalService, logger *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		service: service,
		logger:  logger,
	}
}

type createWithdrawalRequest struct {
	AgentID    string  `json:"agent_id" binding:"required"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	MomoNumber string  `json:"momo_number" binding:"required"`
}

type transitionRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"admin_notes"`
	Confirm    bool   `json:"confirm"`
}

// Create handles POST /api/v1/withdrawals
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req createWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    service.CodeValidation,
			"message": err.Error(),
		})
		return
	}

	withdrawal, err := h.service.RequestWithdrawal(c.Request.Context(), service.WithdrawalRequestInput{
		AgentID:    req.AgentID,
		Amount:     models.ToMinorUnits(req.Amount),
		MomoNumber: req.MomoNumber,
		Caller:     caller(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"withdrawal": toWithdrawalView(withdrawal)})
}

// Transition handles PATCH /api/v1/withdrawals/:id
func (h *WithdrawalHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    service.CodeValidation,
			"message": err.Error(),
		})
		return
	}

	withdrawal, err := h.service.Transition(c.Request.Context(), service.TransitionInput{
		WithdrawalID: c.Param("id"),
		Target:       models.WithdrawalStatus(req.Status),
		AdminNotes:   req.AdminNotes,
		Confirm:      req.Confirm,
		Caller:       caller(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": toWithdrawalView(withdrawal)})
}

// Get handles GET /api/v1/withdrawals/:id
func (h *WithdrawalHandler) Get(c *gin.Context) {
	withdrawal, err := h.service.GetWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": toWithdrawalView(withdrawal)})
}

// ListByAgent handles GET /api/v1/agents/:id/withdrawals
func (h *WithdrawalHandler) ListByAgent(c *gin.Context) {
	withdrawals, err := h.service.ListWithdrawals(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	views := make([]withdrawalView, 0, len(withdrawals))
	for _, w := range withdrawals {
		views = append(views, toWithdrawalView(w))
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": views})
}
