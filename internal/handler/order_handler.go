// internal/handler/order_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"commission-ledger/internal/models"
	"commission-ledger/internal/service"
)

type OrderHandler struct {
	service *service.OrderService
	logger  *zap.Logger
}

func NewOrderHandler(service *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type placeOrderRequest struct {
	AgentID          string  `json:"agent_id" binding:"required"`
	Type             string  `json:"type" binding:"required"`
	ProductRef       string  `json:"product_ref" binding:"required"`
	Amount           float64 `json:"amount" binding:"required,gt=0"`
	CommissionAmount float64 `json:"commission_amount"`
	ReferenceCode    string  `json:"reference_code" binding:"required"`
}

// Place handles POST /api/v1/orders
func (h *OrderHandler) Place(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": service.CodeValidation, "message": err.Error()})
		return
	}

	order, err := h.service.PlaceOrder(c.Request.Context(), service.PlaceOrderInput{
		AgentID:          req.AgentID,
		Type:             models.OrderType(req.Type),
		ProductRef:       req.ProductRef,
		Amount:           models.ToMinorUnits(req.Amount),
		CommissionAmount: models.ToMinorUnits(req.CommissionAmount),
		ReferenceCode:    req.ReferenceCode,
		Caller:           caller(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": orderView(order)})
}

func orderView(order *models.Order) gin.H {
	return gin.H{
		"id":                order.ID,
		"agent_id":          order.AgentID,
		"type":              string(order.Type),
		"product_ref":       order.ProductRef,
		"amount":            models.FromMinorUnits(order.Amount),
		"commission_amount": models.FromMinorUnits(order.CommissionAmount),
		"status":            string(order.Status),
		"reference_code":    order.ReferenceCode,
	}
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": orderView(order)})
}

// Complete handles POST /api/v1/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	item, err := h.service.CompleteOrder(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"commission": gin.H{
		"id":          item.ID,
		"agent_id":    item.AgentID,
		"source_type": string(item.SourceType),
		"source_id":   item.SourceID,
		"amount":      models.FromMinorUnits(item.Amount),
		"status":      string(item.Status),
	}})
}
