package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// DebtRepository persists customer debts and their payment log. Balance
// mutations start from GetByIDForUpdate so the row stays locked for the
// caller's transaction.
type DebtRepository interface {
	Create(executor SQLExecutor, debt *models.CustomerDebt) (int64, error)
	GetByID(tenantID, id int64) (*models.CustomerDebt, error)
	GetByIDForUpdate(executor SQLExecutor, tenantID, id int64) (*models.CustomerDebt, error)
	GetDebts(tenantID int64, filters models.DebtFilters) ([]models.CustomerDebt, int, error)
	UpdateBalances(executor SQLExecutor, debt *models.CustomerDebt) error
	CreatePayment(executor SQLExecutor, payment *models.DebtPayment) (int64, error)
	GetPayments(tenantID, debtID int64) ([]models.DebtPayment, error)
	SumOpenRemaining(executor SQLExecutor, tenantID, clientID int64) (decimal.Decimal, error)
}

type debtRepository struct {
	db *sql.DB
}

// NewDebtRepository creates a new instance of DebtRepository.
func NewDebtRepository(db *sql.DB) DebtRepository {
	return &debtRepository{db: db}
}

const debtColumns = `id, tenant_id, client_id, amount, paid_amount, remaining_amount,
	status, due_date, notes, created_at, updated_at`

func scanDebt(row interface{ Scan(...interface{}) error }, d *models.CustomerDebt) error {
	return row.Scan(
		&d.ID, &d.TenantID, &d.ClientID, &d.Amount, &d.PaidAmount, &d.RemainingAmount,
		&d.Status, &d.DueDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
}

func (r *debtRepository) Create(executor SQLExecutor, debt *models.CustomerDebt) (int64, error) {
	query := `INSERT INTO customer_debts
	            (tenant_id, client_id, amount, paid_amount, remaining_amount, status,
	             due_date, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, 0, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		debt.TenantID, debt.ClientID, debt.Amount, models.DebtStatusUnpaid,
		debt.DueDate, debt.Notes, currentTime, currentTime,
	).Scan(&debt.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating debt: %v", ErrDatabaseError, err)
	}
	debt.PaidAmount = decimal.Zero
	debt.RemainingAmount = debt.Amount
	debt.Status = models.DebtStatusUnpaid
	debt.CreatedAt = currentTime
	debt.UpdatedAt = currentTime
	return debt.ID, nil
}

func (r *debtRepository) GetByID(tenantID, id int64) (*models.CustomerDebt, error) {
	debt := &models.CustomerDebt{}
	query := `SELECT ` + debtColumns + ` FROM customer_debts WHERE tenant_id = $1 AND id = $2`
	err := scanDebt(r.db.QueryRow(query, tenantID, id), debt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting debt by ID %d: %v", ErrDatabaseError, id, err)
	}
	return debt, nil
}

func (r *debtRepository) GetByIDForUpdate(executor SQLExecutor, tenantID, id int64) (*models.CustomerDebt, error) {
	debt := &models.CustomerDebt{}
	query := `SELECT ` + debtColumns + ` FROM customer_debts WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	err := scanDebt(executor.QueryRow(query, tenantID, id), debt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking debt ID %d: %v", ErrDatabaseError, id, err)
	}
	return debt, nil
}

func (r *debtRepository) GetDebts(tenantID int64, filters models.DebtFilters) ([]models.CustomerDebt, int, error) {
	debts := []models.CustomerDebt{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + debtColumns + `,
	    COUNT(*) OVER() AS total_count
	  FROM customer_debts
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.ClientID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND client_id = $%d", argCount))
		args = append(args, *filters.ClientID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		// Overdue is derived, not stored: an overdue debt is an open debt
		// past its due date.
		if *filters.Status == models.DebtStatusOverdue {
			queryBuilder.WriteString(fmt.Sprintf(" AND status != $%d AND due_date IS NOT NULL AND due_date < $%d", argCount, argCount+1))
			args = append(args, models.DebtStatusPaid, time.Now())
			argCount += 2
		} else {
			queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argCount))
			args = append(args, *filters.Status)
			argCount++
		}
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting debts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.CustomerDebt
		if err := rows.Scan(
			&d.ID, &d.TenantID, &d.ClientID, &d.Amount, &d.PaidAmount, &d.RemainingAmount,
			&d.Status, &d.DueDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning debt: %v", ErrDatabaseError, err)
		}
		debts = append(debts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating debts: %v", ErrDatabaseError, err)
	}
	return debts, totalCount, nil
}

func (r *debtRepository) UpdateBalances(executor SQLExecutor, debt *models.CustomerDebt) error {
	query := `UPDATE customer_debts
	          SET paid_amount = $1, remaining_amount = $2, status = $3, updated_at = $4
	          WHERE tenant_id = $5 AND id = $6`
	result, err := executor.Exec(query,
		debt.PaidAmount, debt.RemainingAmount, debt.Status, time.Now(),
		debt.TenantID, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating balances for debt ID %d: %v", ErrDatabaseError, debt.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *debtRepository) CreatePayment(executor SQLExecutor, payment *models.DebtPayment) (int64, error) {
	query := `INSERT INTO debt_payments
	            (debt_id, tenant_id, amount, method, notes, actor_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	payment.CreatedAt = time.Now()

	err := executor.QueryRow(query,
		payment.DebtID, payment.TenantID, payment.Amount, payment.Method,
		payment.Notes, payment.ActorID, payment.CreatedAt,
	).Scan(&payment.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating debt payment: %v", ErrDatabaseError, err)
	}
	return payment.ID, nil
}

func (r *debtRepository) GetPayments(tenantID, debtID int64) ([]models.DebtPayment, error) {
	payments := []models.DebtPayment{}
	query := `SELECT id, debt_id, tenant_id, amount, method, notes, actor_id, created_at
	          FROM debt_payments
	          WHERE tenant_id = $1 AND debt_id = $2
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(query, tenantID, debtID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting payments for debt ID %d: %v", ErrDatabaseError, debtID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.DebtPayment
		if err := rows.Scan(
			&p.ID, &p.DebtID, &p.TenantID, &p.Amount, &p.Method, &p.Notes, &p.ActorID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning debt payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating debt payments: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

// SumOpenRemaining recomputes the client's aggregate from the full set of
// open debts rather than adjusting it incrementally.
func (r *debtRepository) SumOpenRemaining(executor SQLExecutor, tenantID, clientID int64) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	query := `SELECT SUM(remaining_amount) FROM customer_debts
	          WHERE tenant_id = $1 AND client_id = $2 AND status != $3`
	err := executor.QueryRow(query, tenantID, clientID, models.DebtStatusPaid).Scan(&sum)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: summing open debt for client ID %d: %v", ErrDatabaseError, clientID, err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
