package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale types. A RETURN is stored as an independent sale row with negated
// totals, linked to the original through OriginalSaleID.
const (
	SaleTypeSale   = "SALE"
	SaleTypeReturn = "RETURN"
)

// Sale is one finalized sale or return with its line items.
type Sale struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	Type           string          `json:"type"`
	OriginalSaleID *int64          `json:"original_sale_id,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountID     *int64          `json:"discount_id,omitempty"`
	ActorID        int64           `json:"actor_id"`
	ClientID       *int64          `json:"client_id,omitempty"`
	SaleTime       time.Time       `json:"sale_time"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []SaleItem      `json:"items"`
}

// SaleItem is one product/quantity line within a sale. UnitPrice is a
// snapshot of the product price at the time of the sale.
type SaleItem struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`

	ProductName string `json:"product_name,omitempty"`
}

// SaleFilters narrows sale listings.
type SaleFilters struct {
	Type     *string
	ClientID *int64
	ActorID  *int64
	Date     *string
	Page     int
	PageSize int
}
