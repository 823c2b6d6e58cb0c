package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssueGiftCardRequest is used for issuing a new gift card.
type IssueGiftCardRequest struct {
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	ExpiresAt *time.Time      `json:"expires_at"`
	StoreID   *int64          `json:"store_id"`
	Note      *string         `json:"note"`
}

// GiftCardService manages the gift card ledger: issue, redeem, refund.
// Redemptions and refunds lock the card row and keep the usage log in step
// with the remaining balance.
type GiftCardService interface {
	Issue(tenantID, actorID int64, req IssueGiftCardRequest) (*models.GiftCard, error)
	GetByID(tenantID, id int64) (*models.GiftCard, error)
	GetGiftCards(tenantID int64, filters models.GiftCardFilters) ([]models.GiftCard, int, error)

	// Validate reports whether the card identified by code can currently pay
	// anything, without mutating it.
	Validate(tenantID int64, code string, now time.Time) (*models.GiftCard, error)

	// Use redeems amount against the card inside the caller's transaction,
	// recording a usage row tied to saleID.
	Use(executor repositories.SQLExecutor, tenantID int64, code string, saleID int64, amount decimal.Decimal, now time.Time) (*models.GiftCardUsage, error)

	// Refund restores value from the usage recorded for saleID. The refund
	// may not exceed what that usage took.
	Refund(tenantID, actorID, cardID, saleID int64, amount decimal.Decimal) (*models.GiftCard, error)

	Cancel(tenantID, actorID, id int64) (*models.GiftCard, error)
	GetUsages(tenantID, cardID int64) ([]models.GiftCardUsage, error)
}

type giftCardService struct {
	giftCardRepo repositories.GiftCardRepository
	db           *sql.DB
	sink         audit.Sink
}

// NewGiftCardService creates a new instance of GiftCardService.
func NewGiftCardService(gr repositories.GiftCardRepository, db *sql.DB, sink audit.Sink) GiftCardService {
	return &giftCardService{giftCardRepo: gr, db: db, sink: sink}
}

func (s *giftCardService) Issue(tenantID, actorID int64, req IssueGiftCardRequest) (*models.GiftCard, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: gift card amount must be positive", ErrValidation)
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", ErrValidation)
	}

	cardType := req.Type
	if cardType == "" {
		cardType = "standard"
	}

	card := &models.GiftCard{
		TenantID:  tenantID,
		Code:      strings.ToUpper(uuid.NewString()),
		Number:    generateCardNumber(),
		Type:      cardType,
		Amount:    req.Amount,
		Status:    models.GiftCardStatusActive,
		ExpiresAt: req.ExpiresAt,
		StoreID:   req.StoreID,
		Note:      req.Note,
		IssuedBy:  actorID,
	}

	if _, err := s.giftCardRepo.Create(s.db, card); err != nil {
		return nil, fmt.Errorf("failed to create gift card: %w", err)
	}

	amount := card.Amount
	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionGiftCardIssued,
		EntityType: "gift_card",
		EntityID:   card.ID,
		Amount:     &amount,
		OccurredAt: time.Now(),
	})
	return card, nil
}

// generateCardNumber derives a 16-digit printable number from a random UUID.
func generateCardNumber() string {
	id := uuid.New()
	var b strings.Builder
	for _, by := range id[:8] {
		fmt.Fprintf(&b, "%02d", int(by)%100)
	}
	return b.String()
}

func (s *giftCardService) GetByID(tenantID, id int64) (*models.GiftCard, error) {
	card, err := s.giftCardRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrGiftCardNotFound, id)
		}
		return nil, fmt.Errorf("failed to get gift card: %w", err)
	}
	return card, nil
}

func (s *giftCardService) GetGiftCards(tenantID int64, filters models.GiftCardFilters) ([]models.GiftCard, int, error) {
	cards, totalCount, err := s.giftCardRepo.GetGiftCards(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get gift cards: %w", err)
	}
	return cards, totalCount, nil
}

// usableNow checks status, expiry and balance. Returns nil if the card can pay.
func usableNow(card *models.GiftCard, now time.Time) error {
	switch card.Status {
	case models.GiftCardStatusActive:
	case models.GiftCardStatusUsed, models.GiftCardStatusExpired, models.GiftCardStatusCancelled:
		return fmt.Errorf("%w: gift card is %s", ErrInvalidState, card.Status)
	default:
		return fmt.Errorf("%w: unknown gift card status %q", ErrInvalidState, card.Status)
	}
	if card.ExpiresAt != nil && card.ExpiresAt.Before(now) {
		return fmt.Errorf("%w: gift card is expired", ErrInvalidState)
	}
	if !card.RemainingAmount.IsPositive() {
		return fmt.Errorf("%w: gift card has no remaining balance", ErrInvalidState)
	}
	return nil
}

func (s *giftCardService) Validate(tenantID int64, code string, now time.Time) (*models.GiftCard, error) {
	card, err := s.giftCardRepo.GetByCode(tenantID, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: code %q", ErrGiftCardNotFound, code)
		}
		return nil, fmt.Errorf("failed to get gift card by code: %w", err)
	}
	if err := usableNow(card, now); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *giftCardService) Use(executor repositories.SQLExecutor, tenantID int64, code string, saleID int64, amount decimal.Decimal, now time.Time) (*models.GiftCardUsage, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: redemption amount must be positive", ErrValidation)
	}

	card, err := s.giftCardRepo.GetByCodeForUpdate(executor, tenantID, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: code %q", ErrGiftCardNotFound, code)
		}
		return nil, fmt.Errorf("failed to lock gift card: %w", err)
	}

	if err := usableNow(card, now); err != nil {
		return nil, err
	}
	if amount.GreaterThan(card.RemainingAmount) {
		return nil, &InsufficientBalanceError{
			GiftCardID: card.ID,
			Remaining:  card.RemainingAmount,
			Requested:  amount,
		}
	}

	card.RemainingAmount = card.RemainingAmount.Sub(amount)
	if card.RemainingAmount.IsZero() {
		card.Status = models.GiftCardStatusUsed
	}
	if err := s.giftCardRepo.UpdateBalance(executor, card); err != nil {
		return nil, fmt.Errorf("failed to update gift card balance: %w", err)
	}

	usage := &models.GiftCardUsage{
		GiftCardID: card.ID,
		TenantID:   tenantID,
		SaleID:     saleID,
		Amount:     amount,
	}
	if _, err := s.giftCardRepo.CreateUsage(executor, usage); err != nil {
		return nil, fmt.Errorf("failed to record gift card usage: %w", err)
	}
	return usage, nil
}

func (s *giftCardService) Refund(tenantID, actorID, cardID, saleID int64, amount decimal.Decimal) (*models.GiftCard, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := s.giftCardRepo.GetByIDForUpdate(tx, tenantID, cardID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrGiftCardNotFound, cardID)
		}
		return nil, fmt.Errorf("failed to lock gift card: %w", err)
	}
	if card.Status == models.GiftCardStatusCancelled {
		return nil, fmt.Errorf("%w: gift card is cancelled", ErrInvalidState)
	}

	usage, err := s.giftCardRepo.FindUsageForSale(tx, tenantID, cardID, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no usage recorded for sale %d on this card", ErrInvalidState, saleID)
		}
		return nil, fmt.Errorf("failed to find gift card usage: %w", err)
	}
	if amount.GreaterThan(usage.Amount) {
		return nil, fmt.Errorf("%w: requested %s, usage was %s", ErrRefundExceedsUsage, amount, usage.Amount)
	}

	card.RemainingAmount = card.RemainingAmount.Add(amount)
	if card.RemainingAmount.GreaterThan(card.Amount) {
		// Cannot happen while refunds stay bounded by usages, but the
		// invariant is cheap to assert before the write.
		return nil, fmt.Errorf("%w: refund would exceed card face value", ErrInvalidState)
	}
	if card.Status == models.GiftCardStatusUsed && card.RemainingAmount.IsPositive() {
		card.Status = models.GiftCardStatusActive
	}
	if err := s.giftCardRepo.UpdateBalance(tx, card); err != nil {
		return nil, fmt.Errorf("failed to update gift card balance: %w", err)
	}

	// Full refund removes the usage row; a partial one shrinks it by
	// deleting and re-recording the remainder against the same sale.
	if err := s.giftCardRepo.DeleteUsage(tx, tenantID, usage.ID); err != nil {
		return nil, fmt.Errorf("failed to delete gift card usage: %w", err)
	}
	if amount.LessThan(usage.Amount) {
		remainder := &models.GiftCardUsage{
			GiftCardID: cardID,
			TenantID:   tenantID,
			SaleID:     saleID,
			Amount:     usage.Amount.Sub(amount),
		}
		if _, err := s.giftCardRepo.CreateUsage(tx, remainder); err != nil {
			return nil, fmt.Errorf("failed to re-record partial gift card usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit gift card refund: %w", err)
	}

	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionGiftCardRefund,
		EntityType: "gift_card",
		EntityID:   cardID,
		Amount:     &amount,
		Details:    fmt.Sprintf("sale %d", saleID),
		OccurredAt: time.Now(),
	})
	return card, nil
}

func (s *giftCardService) Cancel(tenantID, actorID, id int64) (*models.GiftCard, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := s.giftCardRepo.GetByIDForUpdate(tx, tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrGiftCardNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock gift card: %w", err)
	}
	if card.Status == models.GiftCardStatusCancelled {
		return nil, fmt.Errorf("%w: gift card is already cancelled", ErrInvalidState)
	}

	if err := s.giftCardRepo.UpdateStatus(tx, tenantID, id, models.GiftCardStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel gift card: %w", err)
	}
	card.Status = models.GiftCardStatusCancelled

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit gift card cancellation: %w", err)
	}
	return card, nil
}

func (s *giftCardService) GetUsages(tenantID, cardID int64) ([]models.GiftCardUsage, error) {
	if _, err := s.GetByID(tenantID, cardID); err != nil {
		return nil, err
	}
	usages, err := s.giftCardRepo.GetUsages(tenantID, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gift card usages: %w", err)
	}
	return usages, nil
}
