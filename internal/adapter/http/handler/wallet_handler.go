package handler

import (
	"currency-exchange/internal/adapter/http/dto"
	"currency-exchange/internal/adapter/http/middleware"
	"currency-exchange/internal/core/ports"
	"currency-exchange/pkg/apperror"
	"currency-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	walletSvc    ports.WalletService
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{
		walletSvc:    walletSvc,
		reportingSvc: reportingSvc,
	}
}

// OpenWallet handles POST /api/v1/wallets. It answers 201 when the wallet
// was created and 200 when it already existed.
func (h *WalletHandler) OpenWallet(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, created, err := h.walletSvc.OpenWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if created {
		response.Created(c, dto.FromWallet(wallet))
		return
	}
	response.OK(c, dto.FromWallet(wallet))
}

// GetWallet handles GET /api/v1/wallets.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	view, err := h.reportingSvc.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWalletView(view))
}

// Topup handles POST /api/v1/wallets/topup.
func (h *WalletHandler) Topup(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.Topup(c.Request.Context(), ports.TopupRequest{
		UserID:   userID,
		Currency: req.Currency,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}
