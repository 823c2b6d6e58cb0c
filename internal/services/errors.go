package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across services.
var (
	ErrValidation = errors.New("validation failed")

	ErrProductNotFound  = errors.New("product not found")
	ErrClientNotFound   = errors.New("client not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrDebtNotFound     = errors.New("debt not found")
	ErrGiftCardNotFound = errors.New("gift card not found")
	ErrDiscountNotFound = errors.New("discount not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrInvalidState covers operations against an entity whose status forbids
	// them: using a cancelled gift card, returning a return.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrReturnOfReturn is returned when the referenced original sale is
	// itself a return.
	ErrReturnOfReturn = errors.New("cannot create a return for a return")

	// ErrReturnAlreadyExists is returned when the original sale already has a
	// recorded return.
	ErrReturnAlreadyExists = errors.New("sale has already been returned")

	// ErrRefundExceedsUsage is returned when a gift card refund asks for more
	// than the matched usage record holds.
	ErrRefundExceedsUsage = errors.New("refund amount exceeds recorded usage")

	// ErrDiscountNotApplicable is returned when a discount code exists but
	// fails an eligibility rule for the given cart.
	ErrDiscountNotApplicable = errors.New("discount not applicable")
)

// InsufficientStockError reports a stock decrement larger than what is on
// hand. Available is the quantity at the time of the locked read.
type InsufficientStockError struct {
	ProductID int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InsufficientBalanceError reports a gift card redemption larger than the
// card's remaining balance.
type InsufficientBalanceError struct {
	GiftCardID int64
	Remaining  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient gift card balance on card %d: requested %s, remaining %s",
		e.GiftCardID, e.Requested, e.Remaining)
}

// ExcessPaymentError reports a repayment larger than the debt's remainder.
// Overpayment is rejected, never silently capped.
type ExcessPaymentError struct {
	DebtID    int64
	Remaining decimal.Decimal
	Requested decimal.Decimal
}

func (e *ExcessPaymentError) Error() string {
	return fmt.Sprintf("payment exceeds remaining debt %d: requested %s, remaining %s",
		e.DebtID, e.Requested, e.Remaining)
}
