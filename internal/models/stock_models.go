package models

import "time"

// StockTransaction is the immutable, append-only record of one stock change.
// The sum of Delta across a product's transactions must equal its StockQty.
type StockTransaction struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	ProductID int64     `json:"product_id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	ActorID   int64     `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`

	// ProductName is populated on history reads for display purposes.
	ProductName string `json:"product_name,omitempty"`
}

// StockHistoryFilters narrows stock transaction history reads.
type StockHistoryFilters struct {
	ProductID *int64
	Reason    *string
	Page      int
	PageSize  int
}
