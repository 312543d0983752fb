package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"
	"currency-exchange/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReportingService_GetVolumeStats_All(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)

	svc := NewReportingService(mockTxRepo, mockWalletRepo)

	expected := []domain.PairVolume{
		{FromCurrency: "USD", ToCurrency: "EUR", Count: 3, FromVolume: dec("150"), ToVolume: dec("120")},
	}
	mockTxRepo.EXPECT().GetVolumeStats(gomock.Any(), (*time.Time)(nil)).Return(expected, nil)

	result, err := svc.GetVolumeStats(context.Background(), "all")
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestReportingService_GetVolumeStats_WithPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)

	svc := NewReportingService(mockTxRepo, mockWalletRepo).(*reportingService)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mockTxRepo.EXPECT().GetVolumeStats(gomock.Any(), gomock.Not(gomock.Nil())).DoAndReturn(
		func(_ context.Context, since *time.Time) ([]domain.PairVolume, error) {
			assert.Equal(t, now.AddDate(0, 0, -7), *since)
			return nil, nil
		},
	)

	result, err := svc.GetVolumeStats(context.Background(), "week")
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestReportingService_GetVolumeStats_InvalidPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewReportingService(mocks.NewMockTransactionRepository(ctrl), mocks.NewMockWalletRepository(ctrl))

	_, err := svc.GetVolumeStats(context.Background(), "invalid")
	assertAppError(t, err, "REQ_001")
}

func TestReportingService_ListTransactions_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)

	svc := NewReportingService(mockTxRepo, mockWalletRepo)

	userID := uuid.New()
	params := ports.TransactionListParams{
		UserID:   &userID,
		Page:     1,
		PageSize: 20,
	}

	txns := []domain.Transaction{
		{ID: uuid.New(), OfferID: uuid.New(), FromUserID: userID},
		{ID: uuid.New(), OfferID: uuid.New(), ToUserID: userID},
	}
	mockTxRepo.EXPECT().List(gomock.Any(), params).Return(txns, int64(2), nil)

	result, total, err := svc.ListTransactions(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, int64(2), total)
}

func TestReportingService_ListTransactions_NormalisesPaging(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewReportingService(mockTxRepo, mocks.NewMockWalletRepository(ctrl))

	mockTxRepo.EXPECT().
		List(gomock.Any(), ports.TransactionListParams{Page: 1, PageSize: maxPageSize}).
		Return(nil, int64(0), nil)

	result, total, err := svc.ListTransactions(context.Background(), ports.TransactionListParams{Page: 0, PageSize: 5000})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Zero(t, total)
}

func TestReportingService_ListTransactions_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewReportingService(mockTxRepo, mocks.NewMockWalletRepository(ctrl))

	params := ports.TransactionListParams{Page: 1, PageSize: 20}
	mockTxRepo.EXPECT().List(gomock.Any(), params).Return(nil, int64(0), errors.New("db error"))

	_, _, err := svc.ListTransactions(context.Background(), params)
	assertAppError(t, err, "SYS_001")
}

func TestReportingService_GetWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxRepo := mocks.NewMockTransactionRepository(ctrl)
	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)
	svc := NewReportingService(mockTxRepo, mockWalletRepo)

	userID := uuid.New()
	balances := []domain.Balance{
		{UserID: userID, Currency: "EUR", Amount: dec("40")},
		{UserID: userID, Currency: "USD", Amount: dec("50")},
	}
	mockWalletRepo.EXPECT().GetBalances(gomock.Any(), userID).Return(balances, nil)

	page1 := make([]domain.Transaction, maxPageSize)
	page2 := []domain.Transaction{{ID: uuid.New()}}
	gomock.InOrder(
		mockTxRepo.EXPECT().
			List(gomock.Any(), ports.TransactionListParams{UserID: &userID, Page: 1, PageSize: maxPageSize}).
			Return(page1, int64(maxPageSize+1), nil),
		mockTxRepo.EXPECT().
			List(gomock.Any(), ports.TransactionListParams{UserID: &userID, Page: 2, PageSize: maxPageSize}).
			Return(page2, int64(maxPageSize+1), nil),
	)

	view, err := svc.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, view.UserID)
	assert.Equal(t, balances, view.Balances)
	assert.Len(t, view.Transactions, maxPageSize+1)
}

func TestReportingService_GetWallet_NotOpened(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)
	svc := NewReportingService(mocks.NewMockTransactionRepository(ctrl), mockWalletRepo)

	userID := uuid.New()
	mockWalletRepo.EXPECT().GetBalances(gomock.Any(), userID).Return(nil, nil)

	_, err := svc.GetWallet(context.Background(), userID)
	assertAppError(t, err, "WAL_003")
}

func TestReportingService_GetWallet_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWalletRepo := mocks.NewMockWalletRepository(ctrl)
	svc := NewReportingService(mocks.NewMockTransactionRepository(ctrl), mockWalletRepo)

	userID := uuid.New()
	mockWalletRepo.EXPECT().GetBalances(gomock.Any(), userID).Return(nil, context.DeadlineExceeded)

	_, err := svc.GetWallet(context.Background(), userID)
	assertAppError(t, err, "SYS_002")
}
