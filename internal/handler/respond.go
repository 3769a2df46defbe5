// internal/handler/respond.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"commission-ledger/internal/models"
	"commission-ledger/internal/service"
)

// caller extracts the authenticated identity forwarded by the gateway. The
// edge handles authentication; these headers are trusted within the private
// network.
func caller(c *gin.Context) service.Caller {
	return service.Caller{
		ID:   c.GetHeader("X-User-ID"),
		Role: c.GetHeader("X-User-Role"),
	}
}

// respondError maps an AppError to its status and JSON shape. Unclassified
// errors are logged with context and surfaced as a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	if appErr, ok := service.AsAppError(err); ok {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("code", appErr.Code),
				zap.Error(appErr))
			// Do not leak the wrapped cause.
			c.JSON(appErr.HTTPStatus, gin.H{"code": appErr.Code, "message": appErr.Message})
			return
		}
		body := gin.H{"code": appErr.Code, "message": appErr.Message}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.HTTPStatus, body)
		return
	}

	log.Error("unclassified error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    service.CodeInternal,
		"message": "an unexpected error occurred",
	})
}

// Response views: amounts cross the JSON boundary in cedis.

type withdrawalView struct {
	ID              string           `json:"id"`
	AgentID         string           `json:"agent_id"`
	Amount          float64          `json:"amount"`
	ReservedAmount  float64          `json:"reserved_amount"`
	MomoNumber      string           `json:"momo_number"`
	Status          string           `json:"status"`
	AdminNotes      string           `json:"admin_notes,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	RequestedAt     string           `json:"requested_at"`
	ProcessedAt     string           `json:"processed_at,omitempty"`
	Items           []commissionView `json:"items,omitempty"`
}

type commissionView struct {
	ID         string  `json:"id"`
	SourceType string  `json:"source_type"`
	SourceID   string  `json:"source_id"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
}

type walletTxView struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agent_id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	ReferenceCode string  `json:"reference_code"`
	Description   string  `json:"description,omitempty"`
	BalanceAfter  float64 `json:"balance_after"`
	CreatedAt     string  `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toWithdrawalView(w *models.WithdrawalRequest) withdrawalView {
	view := withdrawalView{
		ID:              w.ID,
		AgentID:         w.AgentID,
		Amount:          models.FromMinorUnits(w.Amount),
		ReservedAmount:  models.FromMinorUnits(w.ReservedAmount),
		MomoNumber:      w.MomoNumber,
		Status:          string(w.Status),
		AdminNotes:      w.AdminNotes,
		RejectionReason: w.RejectionReason,
		RequestedAt:     w.RequestedAt.Format(timeLayout),
	}
	if w.ProcessedAt.Valid {
		view.ProcessedAt = w.ProcessedAt.Time.Format(timeLayout)
	}
	for _, item := range w.Items {
		view.Items = append(view.Items, commissionView{
			ID:         item.ID,
			SourceType: string(item.SourceType),
			SourceID:   item.SourceID,
			Amount:     models.FromMinorUnits(item.Amount),
			Status:     string(item.Status),
		})
	}
	return view
}

func toWalletTxView(t *models.WalletTransaction) walletTxView {
	return walletTxView{
		ID:            t.ID,
		AgentID:       t.AgentID,
		Type:          string(t.Type),
		Amount:        models.FromMinorUnits(t.Amount),
		Status:        string(t.Status),
		ReferenceCode: t.ReferenceCode,
		Description:   t.Description,
		BalanceAfter:  models.FromMinorUnits(t.BalanceAfter),
		CreatedAt:     t.CreatedAt.Format(timeLayout),
	}
}
