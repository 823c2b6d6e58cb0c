package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
)

// StockTransactionRepository persists the append-only stock change log.
// Rows are never updated or deleted.
type StockTransactionRepository interface {
	Create(executor SQLExecutor, tx *models.StockTransaction) (int64, error)
	GetHistory(tenantID int64, filters models.StockHistoryFilters) ([]models.StockTransaction, int, error)
	SumDeltas(tenantID, productID int64) (int64, error)
}

type stockTransactionRepository struct {
	db *sql.DB
}

// NewStockTransactionRepository creates a new instance of StockTransactionRepository.
func NewStockTransactionRepository(db *sql.DB) StockTransactionRepository {
	return &stockTransactionRepository{db: db}
}

func (r *stockTransactionRepository) Create(executor SQLExecutor, tx *models.StockTransaction) (int64, error) {
	query := `INSERT INTO stock_transactions
	            (tenant_id, product_id, delta, reason, actor_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		tx.TenantID, tx.ProductID, tx.Delta, tx.Reason, tx.ActorID, tx.CreatedAt,
	).Scan(&tx.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating stock transaction: %v", ErrDatabaseError, err)
	}
	return tx.ID, nil
}

func (r *stockTransactionRepository) GetHistory(tenantID int64, filters models.StockHistoryFilters) ([]models.StockTransaction, int, error) {
	transactions := []models.StockTransaction{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    st.id, st.tenant_id, st.product_id, st.delta, st.reason, st.actor_id, st.created_at,
	    p.name AS product_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_transactions st
	  JOIN products p ON st.product_id = p.id
	  WHERE st.tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.ProductID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND st.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.Reason != nil && *filters.Reason != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND st.reason = $%d", argCount))
		args = append(args, *filters.Reason)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY st.created_at DESC, st.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock history: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.StockTransaction
		if err := rows.Scan(
			&t.ID, &t.TenantID, &t.ProductID, &t.Delta, &t.Reason, &t.ActorID, &t.CreatedAt,
			&t.ProductName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock transaction: %v", ErrDatabaseError, err)
		}
		transactions = append(transactions, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock transactions: %v", ErrDatabaseError, err)
	}
	return transactions, totalCount, nil
}

// SumDeltas returns the ledger sum for one product. Used by the
// reconciliation read: the result must equal the product's stock_qty.
func (r *stockTransactionRepository) SumDeltas(tenantID, productID int64) (int64, error) {
	var sum sql.NullInt64
	query := `SELECT SUM(delta) FROM stock_transactions WHERE tenant_id = $1 AND product_id = $2`
	err := r.db.QueryRow(query, tenantID, productID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("%w: summing stock deltas for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return sum.Int64, nil
}
