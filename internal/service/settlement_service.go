package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"currency-exchange/internal/core/domain"
	"currency-exchange/internal/core/ports"
	"currency-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL = 24 * time.Hour

	defaultListLimit = 100
	maxListLimit     = 500
)

// Operation names used for metrics labels.
const (
	opCreateOffer = "create_offer"
	opAcceptOffer = "accept_offer"
	opCancelOffer = "cancel_offer"
	opMatch       = "match_offers"
)

// SettlementServiceImpl implements ports.SettlementService. Every mutating
// entry point is a single unit of work: funds are reserved, exchanged or
// refunded together with the offer's status change, or not at all.
type SettlementServiceImpl struct {
	offerRepo  ports.OfferRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	transactor ports.DBTransactor
	currencies map[string]struct{}
	hooks
	log zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl. An empty
// currencies list accepts any ISO-4217 style code.
func NewSettlementService(
	offerRepo ports.OfferRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	transactor ports.DBTransactor,
	currencies []string,
	log zerolog.Logger,
	opts ...Option,
) *SettlementServiceImpl {
	set := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		set[c] = struct{}{}
	}
	return &SettlementServiceImpl{
		offerRepo:  offerRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		transactor: transactor,
		currencies: set,
		hooks:      newHooks(opts),
		log:        log,
	}
}

// CreateOffer validates the terms, reserves fromValue from the owner's
// wallet and records the offer as OPEN.
func (s *SettlementServiceImpl) CreateOffer(ctx context.Context, req ports.CreateOfferRequest) (offer *domain.Offer, err error) {
	defer s.observe(opCreateOffer, time.Now(), &err)

	if err := s.validateOffer(req); err != nil {
		return nil, err
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.UserID, req.IdempotencyKey)
		replay, err := s.lookupIdempotent(ctx, idempKey)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.walletRepo.Debit(ctx, dbTx, req.UserID, req.FromCurrency, req.FromValue); err != nil {
		return nil, storeErr("reserve funds", err)
	}

	offer = &domain.Offer{
		ID:           uuid.New(),
		UserID:       req.UserID,
		FromCurrency: req.FromCurrency,
		FromValue:    req.FromValue,
		ToCurrency:   req.ToCurrency,
		ToValue:      req.ToValue,
		Status:       domain.OfferStatusOpen,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.offerRepo.Create(ctx, dbTx, offer); err != nil {
		return nil, storeErr("create offer", err)
	}

	var respJSON []byte
	if idempKey != "" {
		respJSON, err = json.Marshal(offer)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		entry := &domain.IdempotencyLog{
			Key:          idempKey,
			ResourceID:   offer.ID,
			ResponseJSON: respJSON,
			CreatedAt:    offer.CreatedAt,
		}
		if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
			// A concurrent request with the same key may have won the insert.
			_ = dbTx.Rollback(ctx)
			if replay, lookupErr := s.lookupIdempotent(ctx, idempKey); lookupErr == nil && replay != nil {
				return replay, nil
			}
			return nil, storeErr("save idempotency log", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeErr("commit tx", err)
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}
	s.publish(ctx, domain.NewOfferEvent(domain.EventOfferCreated, offer, nil))

	s.log.Info().
		Str("offer_id", offer.ID.String()).
		Str("user_id", offer.UserID.String()).
		Str("from", offer.FromValue.String()+" "+offer.FromCurrency).
		Str("to", offer.ToValue.String()+" "+offer.ToCurrency).
		Msg("offer created")

	return offer, nil
}

// AcceptOffer settles an OPEN offer against userID. The acceptor is debited
// before the claim, so a short wallet leaves the offer OPEN and untouched.
func (s *SettlementServiceImpl) AcceptOffer(ctx context.Context, offerID, userID uuid.UUID) (txn *domain.Transaction, err error) {
	defer s.observe(opAcceptOffer, time.Now(), &err)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	offer, err := s.offerRepo.GetByIDForUpdate(ctx, dbTx, offerID)
	if err != nil {
		return nil, storeErr("lock offer", err)
	}
	if err := checkOpen(offer); err != nil {
		return nil, err
	}
	if offer.UserID == userID {
		return nil, apperror.ErrCannotAcceptOwnOffer()
	}

	keys := []domain.BalanceKey{
		{UserID: userID, Currency: offer.ToCurrency},
		{UserID: offer.UserID, Currency: offer.ToCurrency},
		{UserID: userID, Currency: offer.FromCurrency},
	}
	if err := s.walletRepo.LockBalances(ctx, dbTx, keys); err != nil {
		return nil, storeErr("lock balances", err)
	}
	if err := s.walletRepo.Debit(ctx, dbTx, userID, offer.ToCurrency, offer.ToValue); err != nil {
		return nil, storeErr("debit acceptor", err)
	}

	settled, err := s.offerRepo.Claim(ctx, dbTx, offerID, domain.OfferStatusSettled)
	if err != nil {
		return nil, storeErr("claim offer", err)
	}
	if settled == nil {
		return nil, apperror.InternalError(fmt.Errorf("offer %s changed while locked", offerID))
	}

	if err := s.walletRepo.Credit(ctx, dbTx, offer.UserID, offer.ToCurrency, offer.ToValue); err != nil {
		return nil, storeErr("credit owner", err)
	}
	if err := s.walletRepo.Credit(ctx, dbTx, userID, offer.FromCurrency, offer.FromValue); err != nil {
		return nil, storeErr("credit acceptor", err)
	}

	txn = &domain.Transaction{
		ID:           uuid.New(),
		OfferID:      offer.ID,
		FromUserID:   offer.UserID,
		FromValue:    offer.FromValue,
		FromCurrency: offer.FromCurrency,
		ToUserID:     userID,
		ToValue:      offer.ToValue,
		ToCurrency:   offer.ToCurrency,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, storeErr("create transaction", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeErr("commit tx", err)
	}

	s.metrics.ObserveSettlement(offer.FromCurrency, offer.ToCurrency)
	s.publish(ctx, domain.NewOfferEvent(domain.EventOfferSettled, settled, &userID))

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("offer_id", offer.ID.String()).
		Str("owner_id", offer.UserID.String()).
		Str("acceptor_id", userID.String()).
		Msg("offer settled")

	return txn, nil
}

// CancelOffer closes an OPEN offer owned by userID and refunds the reserved
// fromValue.
func (s *SettlementServiceImpl) CancelOffer(ctx context.Context, offerID, userID uuid.UUID) (result *ports.CancelResult, err error) {
	defer s.observe(opCancelOffer, time.Now(), &err)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	offer, err := s.offerRepo.GetByIDForUpdate(ctx, dbTx, offerID)
	if err != nil {
		return nil, storeErr("lock offer", err)
	}
	if offer == nil {
		return nil, apperror.ErrOfferNotFound()
	}
	if offer.UserID != userID {
		return nil, apperror.ErrNotOwner()
	}
	if err := checkOpen(offer); err != nil {
		return nil, err
	}

	cancelled, err := s.offerRepo.Claim(ctx, dbTx, offerID, domain.OfferStatusCancelled)
	if err != nil {
		return nil, storeErr("claim offer", err)
	}
	if cancelled == nil {
		return nil, apperror.InternalError(fmt.Errorf("offer %s changed while locked", offerID))
	}

	if err := s.walletRepo.Credit(ctx, dbTx, offer.UserID, offer.FromCurrency, offer.FromValue); err != nil {
		return nil, storeErr("refund owner", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeErr("commit tx", err)
	}

	s.publish(ctx, domain.NewOfferEvent(domain.EventOfferCancelled, cancelled, nil))

	s.log.Info().
		Str("offer_id", offerID.String()).
		Str("user_id", userID.String()).
		Str("refunded", offer.FromValue.String()+" "+offer.FromCurrency).
		Msg("offer cancelled")

	return &ports.CancelResult{
		Offer:    cancelled,
		Refunded: cancelled.FromValue,
		Currency: cancelled.FromCurrency,
	}, nil
}

// GetOffer returns an offer in any status.
func (s *SettlementServiceImpl) GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, storeErr("get offer", err)
	}
	if offer == nil {
		return nil, apperror.ErrOfferNotFound()
	}
	return offer, nil
}

// ListOpenOffers returns OPEN offers oldest first.
func (s *SettlementServiceImpl) ListOpenOffers(ctx context.Context, params ports.OfferListParams) ([]domain.Offer, error) {
	if params.Limit <= 0 {
		params.Limit = defaultListLimit
	}
	if params.Limit > maxListLimit {
		params.Limit = maxListLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	offers, err := s.offerRepo.ListOpen(ctx, params)
	if err != nil {
		return nil, storeErr("list open offers", err)
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	return offers, nil
}

func (s *SettlementServiceImpl) validateOffer(req ports.CreateOfferRequest) error {
	if !domain.IsValidAmount(req.FromValue) || !domain.IsValidAmount(req.ToValue) {
		return apperror.ErrInvalidOffer(fmt.Sprintf("values must be positive with at most %d decimals", domain.AmountScale))
	}
	for _, c := range []string{req.FromCurrency, req.ToCurrency} {
		if !s.supportsCurrency(c) {
			return apperror.ErrInvalidOffer(fmt.Sprintf("unsupported currency %q", c))
		}
	}
	if req.FromCurrency == req.ToCurrency {
		return apperror.ErrInvalidOffer("from and to currency must differ")
	}
	return nil
}

func (s *SettlementServiceImpl) supportsCurrency(code string) bool {
	if !domain.IsCurrencyCode(code) {
		return false
	}
	if len(s.currencies) == 0 {
		return true
	}
	_, ok := s.currencies[code]
	return ok
}

// lookupIdempotent returns the offer created under key in its current state,
// checking Redis first and then the idempotency log.
func (s *SettlementServiceImpl) lookupIdempotent(ctx context.Context, key string) (*domain.Offer, error) {
	var recorded []byte
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		recorded = cached
	} else {
		entry, err := s.idempRepo.Get(ctx, key)
		if err != nil {
			return nil, storeErr("db idempotency check", err)
		}
		if entry == nil {
			return nil, nil
		}
		recorded = entry.ResponseJSON
	}

	offer, err := unmarshalOffer(recorded)
	if err != nil {
		return nil, err
	}

	// The offer may have settled or been cancelled since it was created.
	current, err := s.offerRepo.GetByID(ctx, offer.ID)
	if err != nil {
		return nil, storeErr("reload offer", err)
	}
	if current != nil {
		return current, nil
	}
	return offer, nil
}

func unmarshalOffer(data []byte) (*domain.Offer, error) {
	var offer domain.Offer
	if err := json.Unmarshal(data, &offer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached offer: %w", err))
	}
	return &offer, nil
}

func (h hooks) observe(op string, start time.Time, err *error) {
	h.metrics.ObserveOperation(op, outcome(*err), time.Since(start))
}

func (s *SettlementServiceImpl) publish(ctx context.Context, event domain.OfferEvent) {
	publishEvent(ctx, s.publisher, s.log, event)
}

// publishEvent is best-effort: the unit of work has already committed.
func publishEvent(ctx context.Context, p ports.EventPublisher, log zerolog.Logger, event domain.OfferEvent) {
	if err := p.Publish(ctx, event); err != nil {
		log.Warn().
			Err(err).
			Str("event", string(event.Type)).
			Str("offer_id", event.OfferID.String()).
			Msg("failed to publish offer event")
	}
}
