package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry for a sellable item. StockQty is mutated only
// through the stock ledger, never by direct field assignment.
type Product struct {
	ID         int64           `json:"id"`
	TenantID   int64           `json:"tenant_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Category   *string         `json:"category,omitempty"`
	Price      decimal.Decimal `json:"price"`
	StockQty   int64           `json:"stock_qty"`
	SupplierID *int64          `json:"supplier_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProductFilters narrows product listings.
type ProductFilters struct {
	Search   *string
	Category *string
	Page     int
	PageSize int
}
