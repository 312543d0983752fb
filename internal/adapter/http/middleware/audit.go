package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// Actions are resolved from the matched route template.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if uid, ok := UserID(c); ok {
			userID = &uid
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/offers" && method == http.MethodPost:
		return domain.AuditActionOfferCreate, "offer"
	case route == "/api/v1/offers/:id/accept" && method == http.MethodPost:
		return domain.AuditActionOfferAccept, "offer"
	case route == "/api/v1/offers/:id/cancel" && method == http.MethodPost,
		route == "/api/v1/offers/:id" && method == http.MethodDelete:
		return domain.AuditActionOfferCancel, "offer"
	case route == "/api/v1/wallets" && method == http.MethodPost:
		return domain.AuditActionWalletOpen, "wallet"
	case route == "/api/v1/wallets/topup" && method == http.MethodPost:
		return domain.AuditActionWalletTopup, "wallet"
	}
	return "", ""
}
