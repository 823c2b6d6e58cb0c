package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// IssueDebtRequest is used for recording a new customer debt.
type IssueDebtRequest struct {
	ClientID int64           `json:"client_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	DueDate  *time.Time      `json:"due_date"`
	Notes    *string         `json:"notes"`
}

// RepayDebtRequest is used for recording a repayment against one debt.
type RepayDebtRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method"`
	Notes  *string         `json:"notes"`
}

// BulkRepayResult summarizes a bulk repayment run. Failed debts are skipped,
// not rolled back with the rest.
type BulkRepayResult struct {
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`
	TotalPaid decimal.Decimal      `json:"total_paid"`
	Failures  map[int64]string     `json:"failures,omitempty"`
	Debts     []models.CustomerDebt `json:"debts"`
}

// DebtService manages the customer debt ledger. Every repayment allocates
// against one locked debt, appends a payment row and recomputes the client's
// aggregate from the full set of open debts in the same transaction.
type DebtService interface {
	Issue(tenantID, actorID int64, req IssueDebtRequest) (*models.CustomerDebt, error)
	Repay(tenantID, actorID, debtID int64, req RepayDebtRequest) (*models.CustomerDebt, error)
	BulkRepay(tenantID, actorID int64, debtIDs []int64, amount decimal.Decimal, method string) (*BulkRepayResult, error)
	GetByID(tenantID, id int64) (*models.CustomerDebt, error)
	GetDebts(tenantID int64, filters models.DebtFilters) ([]models.CustomerDebt, int, error)
	GetPayments(tenantID, debtID int64) ([]models.DebtPayment, error)
}

type debtService struct {
	debtRepo   repositories.DebtRepository
	clientRepo repositories.ClientRepository
	db         *sql.DB
	sink       audit.Sink
}

// NewDebtService creates a new instance of DebtService.
func NewDebtService(
	dr repositories.DebtRepository,
	cr repositories.ClientRepository,
	db *sql.DB,
	sink audit.Sink,
) DebtService {
	return &debtService{debtRepo: dr, clientRepo: cr, db: db, sink: sink}
}

func (s *debtService) Issue(tenantID, actorID int64, req IssueDebtRequest) (*models.CustomerDebt, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: debt amount must be positive", ErrValidation)
	}

	if _, err := s.clientRepo.GetByID(tenantID, req.ClientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrClientNotFound, req.ClientID)
		}
		return nil, fmt.Errorf("failed to get client %d: %w", req.ClientID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	debt := &models.CustomerDebt{
		TenantID: tenantID,
		ClientID: req.ClientID,
		Amount:   req.Amount,
		DueDate:  req.DueDate,
		Notes:    req.Notes,
	}
	if _, err := s.debtRepo.Create(tx, debt); err != nil {
		return nil, fmt.Errorf("failed to create debt: %w", err)
	}

	if err := s.recomputeClientAggregate(tx, tenantID, req.ClientID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit debt issue: %w", err)
	}

	amount := debt.Amount
	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionDebtIssued,
		EntityType: "debt",
		EntityID:   debt.ID,
		Amount:     &amount,
		Details:    fmt.Sprintf("client %d", debt.ClientID),
		OccurredAt: time.Now(),
	})
	return debt, nil
}

func (s *debtService) Repay(tenantID, actorID, debtID int64, req RepayDebtRequest) (*models.CustomerDebt, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	method := req.Method
	if method == "" {
		method = "cash"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	debt, err := s.repayInTx(tx, tenantID, actorID, debtID, req.Amount, method, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit debt repayment: %w", err)
	}

	amount := req.Amount
	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionDebtRepaid,
		EntityType: "debt",
		EntityID:   debt.ID,
		Amount:     &amount,
		Details:    fmt.Sprintf("client %d, status %s", debt.ClientID, debt.Status),
		OccurredAt: time.Now(),
	})
	return debt, nil
}

// repayInTx applies one payment to one locked debt and recomputes the
// client's aggregate. The caller owns the transaction.
func (s *debtService) repayInTx(tx repositories.SQLExecutor, tenantID, actorID, debtID int64, amount decimal.Decimal, method string, notes *string) (*models.CustomerDebt, error) {
	debt, err := s.debtRepo.GetByIDForUpdate(tx, tenantID, debtID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrDebtNotFound, debtID)
		}
		return nil, fmt.Errorf("failed to lock debt %d: %w", debtID, err)
	}

	// A settled debt has a zero remainder, so any positive payment against it
	// falls out of this check as an overpayment.
	if amount.GreaterThan(debt.RemainingAmount) {
		return nil, &ExcessPaymentError{
			DebtID:    debtID,
			Remaining: debt.RemainingAmount,
			Requested: amount,
		}
	}

	debt.PaidAmount = debt.PaidAmount.Add(amount)
	debt.RemainingAmount = debt.Amount.Sub(debt.PaidAmount)
	if debt.RemainingAmount.IsZero() {
		debt.Status = models.DebtStatusPaid
	} else {
		debt.Status = models.DebtStatusPartial
	}
	if err := s.debtRepo.UpdateBalances(tx, debt); err != nil {
		return nil, fmt.Errorf("failed to update debt %d balances: %w", debtID, err)
	}

	payment := &models.DebtPayment{
		DebtID:   debtID,
		TenantID: tenantID,
		Amount:   amount,
		Method:   method,
		Notes:    notes,
		ActorID:  actorID,
	}
	if _, err := s.debtRepo.CreatePayment(tx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment for debt %d: %w", debtID, err)
	}

	if err := s.recomputeClientAggregate(tx, tenantID, debt.ClientID); err != nil {
		return nil, err
	}
	return debt, nil
}

// recomputeClientAggregate rescans the client's open debts and stores the
// sum. A full recompute is immune to drift from missed increments.
func (s *debtService) recomputeClientAggregate(tx repositories.SQLExecutor, tenantID, clientID int64) error {
	total, err := s.debtRepo.SumOpenRemaining(tx, tenantID, clientID)
	if err != nil {
		return fmt.Errorf("failed to recompute debt aggregate for client %d: %w", clientID, err)
	}
	if err := s.clientRepo.UpdateDebtAmount(tx, tenantID, clientID, total); err != nil {
		return fmt.Errorf("failed to store debt aggregate for client %d: %w", clientID, err)
	}
	return nil
}

// BulkRepay applies the same amount to every listed debt independently: a
// debt whose remaining balance is smaller, or that otherwise rejects the
// payment, is skipped and reported while the rest still commit.
func (s *debtService) BulkRepay(tenantID, actorID int64, debtIDs []int64, amount decimal.Decimal, method string) (*BulkRepayResult, error) {
	if len(debtIDs) == 0 {
		return nil, fmt.Errorf("%w: no debts given", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	result := &BulkRepayResult{
		TotalPaid: decimal.Zero,
		Failures:  make(map[int64]string),
	}

	for _, debtID := range debtIDs {
		debt, err := s.Repay(tenantID, actorID, debtID, RepayDebtRequest{
			Amount: amount,
			Method: method,
		})
		if err != nil {
			result.Skipped++
			result.Failures[debtID] = err.Error()
			log.Warn().
				Err(err).
				Int64("debt_id", debtID).
				Int64("tenant_id", tenantID).
				Msg("Bulk repayment debt skipped")
			continue
		}
		result.Processed++
		result.TotalPaid = result.TotalPaid.Add(amount)
		result.Debts = append(result.Debts, *debt)
	}

	if len(result.Failures) == 0 {
		result.Failures = nil
	}
	return result, nil
}

func (s *debtService) GetByID(tenantID, id int64) (*models.CustomerDebt, error) {
	debt, err := s.debtRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrDebtNotFound, id)
		}
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	debt.Status = debt.EffectiveStatus(time.Now())
	return debt, nil
}

func (s *debtService) GetDebts(tenantID int64, filters models.DebtFilters) ([]models.CustomerDebt, int, error) {
	debts, totalCount, err := s.debtRepo.GetDebts(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get debts: %w", err)
	}
	now := time.Now()
	for i := range debts {
		debts[i].Status = debts[i].EffectiveStatus(now)
	}
	return debts, totalCount, nil
}

func (s *debtService) GetPayments(tenantID, debtID int64) ([]models.DebtPayment, error) {
	if _, err := s.GetByID(tenantID, debtID); err != nil {
		return nil, err
	}
	payments, err := s.debtRepo.GetPayments(tenantID, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to get debt payments: %w", err)
	}
	return payments, nil
}
