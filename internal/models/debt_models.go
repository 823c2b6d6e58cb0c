package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt statuses.
const (
	DebtStatusUnpaid  = "unpaid"
	DebtStatusPartial = "partial"
	DebtStatusPaid    = "paid"
	DebtStatusOverdue = "overdue"
)

// CustomerDebt tracks one issued debt. Invariant: RemainingAmount =
// Amount - PaidAmount, never negative. Mutated only by repayment allocation.
type CustomerDebt struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenant_id"`
	ClientID        int64           `json:"client_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EffectiveStatus reports the stored status, upgraded to overdue when an
// unpaid or partial debt is past its due date.
func (d *CustomerDebt) EffectiveStatus(now time.Time) string {
	if d.Status == DebtStatusPaid {
		return d.Status
	}
	if d.DueDate != nil && d.DueDate.Before(now) {
		return DebtStatusOverdue
	}
	return d.Status
}

// DebtFilters narrows debt listings.
type DebtFilters struct {
	ClientID *int64
	Status   *string
	Page     int
	PageSize int
}

// DebtPayment is the immutable record of one repayment against one debt.
// The sum of payments for a debt must equal its PaidAmount.
type DebtPayment struct {
	ID        int64           `json:"id"`
	DebtID    int64           `json:"debt_id"`
	TenantID  int64           `json:"tenant_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Notes     *string         `json:"notes,omitempty"`
	ActorID   int64           `json:"actor_id"`
	CreatedAt time.Time       `json:"created_at"`
}
