package service

import (
	"context"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"
	"currency-exchange/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
	now        func() time.Time
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
) ports.ReportingService {
	return &reportingService{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		now:        time.Now,
	}
}

// GetWallet returns the user's balances and every exchange they took part in.
func (s *reportingService) GetWallet(ctx context.Context, userID uuid.UUID) (*ports.WalletView, error) {
	balances, err := s.walletRepo.GetBalances(ctx, userID)
	if err != nil {
		return nil, storeErr("get balances", err)
	}
	if len(balances) == 0 {
		return nil, apperror.ErrNotFound("wallet")
	}

	view := &ports.WalletView{UserID: userID, Balances: balances, Transactions: []domain.Transaction{}}
	params := ports.TransactionListParams{UserID: &userID, Page: 1, PageSize: maxPageSize}
	for {
		txns, total, err := s.txRepo.List(ctx, params)
		if err != nil {
			return nil, storeErr("list transactions", err)
		}
		view.Transactions = append(view.Transactions, txns...)
		if len(txns) == 0 || int64(len(view.Transactions)) >= total {
			break
		}
		params.Page++
	}
	return view, nil
}

// ListTransactions returns a paginated list of transactions, oldest first.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, storeErr("list transactions", err)
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, total, nil
}

// GetVolumeStats returns settled volume per currency pair for period.
func (s *reportingService) GetVolumeStats(ctx context.Context, period string) ([]domain.PairVolume, error) {
	var since *time.Time
	now := s.now()

	switch period {
	case "day":
		t := now.AddDate(0, 0, -1)
		since = &t
	case "week":
		t := now.AddDate(0, 0, -7)
		since = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		since = &t
	case "all", "":
		// No time filter
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	stats, err := s.txRepo.GetVolumeStats(ctx, since)
	if err != nil {
		return nil, storeErr("get volume stats", err)
	}
	if stats == nil {
		stats = []domain.PairVolume{}
	}
	return stats, nil
}
