package handler

import (
	"currency-exchange/internal/adapter/http/dto"
	"currency-exchange/internal/adapter/http/middleware"
	"currency-exchange/internal/core/ports"
	"currency-exchange/pkg/apperror"
	"currency-exchange/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OfferHandler handles offer lifecycle endpoints.
type OfferHandler struct {
	settlementSvc ports.SettlementService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(settlementSvc ports.SettlementService) *OfferHandler {
	return &OfferHandler{settlementSvc: settlementSvc}
}

// CreateOffer handles POST /api/v1/offers.
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	var hdr dto.IdempotencyHeader
	if err := c.ShouldBindHeader(&hdr); err != nil {
		response.Error(c, apperror.Validation("invalid Idempotency-Key header"))
		return
	}
	dto.SanitizeStruct(&req)

	offer, err := h.settlementSvc.CreateOffer(c.Request.Context(), ports.CreateOfferRequest{
		UserID:         userID,
		FromCurrency:   req.FromCurrency,
		FromValue:      req.FromValue,
		ToCurrency:     req.ToCurrency,
		ToValue:        req.ToValue,
		IdempotencyKey: hdr.Key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromOffer(offer))
}

// ListOffers handles GET /api/v1/offers.
func (h *OfferHandler) ListOffers(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var q dto.ListOffersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.OfferListParams{
		FromCurrency: q.FromCurrency,
		ToCurrency:   q.ToCurrency,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.Mine {
		params.UserID = &userID
	}

	offers, err := h.settlementSvc.ListOpenOffers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromOffers(offers))
}

// GetOffer handles GET /api/v1/offers/:id.
func (h *OfferHandler) GetOffer(c *gin.Context) {
	offerID, ok := offerIDParam(c)
	if !ok {
		return
	}

	offer, err := h.settlementSvc.GetOffer(c.Request.Context(), offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromOffer(offer))
}

// AcceptOffer handles POST /api/v1/offers/:id/accept.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	offerID, ok := offerIDParam(c)
	if !ok {
		return
	}

	txn, err := h.settlementSvc.AcceptOffer(c.Request.Context(), offerID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// CancelOffer handles POST /api/v1/offers/:id/cancel and DELETE /api/v1/offers/:id.
func (h *OfferHandler) CancelOffer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	offerID, ok := offerIDParam(c)
	if !ok {
		return
	}

	result, err := h.settlementSvc.CancelOffer(c.Request.Context(), offerID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromCancelResult(result))
}

// offerIDParam parses the :id path segment, writing a 400 on failure.
func offerIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("offer id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
