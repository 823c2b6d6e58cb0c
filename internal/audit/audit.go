package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one business event emitted after a ledger transaction commits.
type Entry struct {
	TenantID   int64            `json:"tenant_id"`
	ActorID    int64            `json:"actor_id"`
	Action     string           `json:"action"`
	EntityType string           `json:"entity_type"`
	EntityID   int64            `json:"entity_id"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Details    string           `json:"details,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Audit actions.
const (
	ActionSaleCreated     = "sale.created"
	ActionReturnCreated   = "sale.returned"
	ActionStockAdjusted   = "stock.adjusted"
	ActionDebtIssued      = "debt.issued"
	ActionDebtRepaid      = "debt.repaid"
	ActionGiftCardIssued  = "gift_card.issued"
	ActionGiftCardUsed    = "gift_card.used"
	ActionGiftCardRefund  = "gift_card.refunded"
	ActionDiscountApplied = "discount.applied"
)

// Sink receives audit entries. Emit must not fail the business operation:
// implementations log delivery errors and move on.
type Sink interface {
	Emit(entry Entry)
	Close() error
}

// NopSink drops all entries. Used when no broker is configured.
type NopSink struct{}

func (NopSink) Emit(Entry) {}

func (NopSink) Close() error { return nil }
