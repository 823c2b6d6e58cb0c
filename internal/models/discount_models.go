package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount types.
const (
	DiscountTypePercentage   = "percentage"
	DiscountTypeFixed        = "fixed"
	DiscountTypeFreeShipping = "free_shipping"
)

// Discount applicability scopes.
const (
	DiscountScopeAll        = "all"
	DiscountScopeProducts   = "specific_products"
	DiscountScopeCategories = "specific_categories"
)

// Discount is a redeemable code. Validation is read-only; UsageCount is the
// only mutable field and is incremented exactly once per successful
// redemption, at sale finalization.
type Discount struct {
	ID                int64            `json:"id"`
	TenantID          int64            `json:"tenant_id"`
	Code              string           `json:"code"`
	Type              string           `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	Scope             string           `json:"scope"`
	ProductIDs        []int64          `json:"product_ids,omitempty"`
	Categories        []string         `json:"categories,omitempty"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	UsageLimit        *int64           `json:"usage_limit,omitempty"`
	UsageCount        int64            `json:"usage_count"`
	IsActive          bool             `json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DiscountFilters narrows discount listings.
type DiscountFilters struct {
	IsActive *bool
	Search   *string
	Page     int
	PageSize int
}
