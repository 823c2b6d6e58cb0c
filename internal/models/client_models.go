package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer of the tenant. DebtAmount is the aggregate of the
// client's open debt remainders, recomputed by the debt ledger on every
// repayment; it is never written through the client API.
type Client struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	FullName    string          `json:"full_name"`
	PhoneNumber *string         `json:"phone_number,omitempty"`
	Email       *string         `json:"email,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	DebtAmount  decimal.Decimal `json:"debt_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ClientFilters narrows client listings.
type ClientFilters struct {
	Search   *string
	HasDebt  *bool
	Page     int
	PageSize int
}
