package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gift card statuses.
const (
	GiftCardStatusActive    = "active"
	GiftCardStatusUsed      = "used"
	GiftCardStatusExpired   = "expired"
	GiftCardStatusCancelled = "cancelled"
)

// GiftCard tracks a card's remaining redeemable value.
// Invariant: 0 <= RemainingAmount <= Amount.
type GiftCard struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenant_id"`
	Code            string          `json:"code"`
	Number          string          `json:"number"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	StoreID         *int64          `json:"store_id,omitempty"`
	Note            *string         `json:"note,omitempty"`
	IssuedBy        int64           `json:"issued_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// GiftCardFilters narrows gift card listings.
type GiftCardFilters struct {
	Status   *string
	Search   *string
	Page     int
	PageSize int
}

// GiftCardUsage is the immutable record of one redemption against a sale.
// The sum of usages must reconcile with Amount - RemainingAmount.
type GiftCardUsage struct {
	ID         int64           `json:"id"`
	GiftCardID int64           `json:"gift_card_id"`
	TenantID   int64           `json:"tenant_id"`
	SaleID     int64           `json:"sale_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}
