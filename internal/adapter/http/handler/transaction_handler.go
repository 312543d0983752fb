package handler

import (
	"math"
	"time"

	"currency-exchange/internal/adapter/http/dto"
	"currency-exchange/internal/adapter/http/middleware"
	"currency-exchange/internal/core/ports"
	"currency-exchange/pkg/apperror"
	"currency-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	scopeAll        = "all"
)

// TransactionHandler handles transaction history and statistics endpoints.
type TransactionHandler struct {
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{reportingSvc: reportingSvc}
}

// ListTransactions handles GET /api/v1/transactions. The default scope is
// the caller's own exchanges; scope=all lists every settlement.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var q dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}

	params := ports.TransactionListParams{Page: q.Page, PageSize: q.PageSize}
	if q.Scope != scopeAll {
		params.UserID = &userID
	}
	var err error
	if params.From, err = parseTime(q.From); err != nil {
		response.Error(c, apperror.Validation("from must be an RFC 3339 timestamp"))
		return
	}
	if params.To, err = parseTime(q.To); err != nil {
		response.Error(c, apperror.Validation("to must be an RFC 3339 timestamp"))
		return
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(q.PageSize)))

	response.OK(c, dto.TransactionListResponse{
		Items:      dto.FromTransactions(txns),
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	})
}

// VolumeStats handles GET /api/v1/stats/volume.
func (h *TransactionHandler) VolumeStats(c *gin.Context) {
	var q dto.VolumeStatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Period == "" {
		q.Period = "all"
	}

	stats, err := h.reportingSvc.GetVolumeStats(c.Request.Context(), q.Period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"period": q.Period,
		"pairs":  dto.FromVolumes(stats),
	})
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
