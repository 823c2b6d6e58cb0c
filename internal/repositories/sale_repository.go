package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
)

// SaleRepository persists finalized sales and returns with their line items.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error)
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetByID(tenantID, id int64) (*models.Sale, error)
	GetItems(tenantID, saleID int64) ([]models.SaleItem, error)
	GetSales(tenantID int64, filters models.SaleFilters) ([]models.Sale, int, error)
	HasReturnForSale(executor SQLExecutor, tenantID, originalSaleID int64) (bool, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (tenant_id, type, original_sale_id, total_amount, discount_amount, discount_id,
	             actor_id, client_id, sale_time, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	if sale.SaleTime.IsZero() {
		sale.SaleTime = time.Now()
	}
	sale.CreatedAt = time.Now()

	err := executor.QueryRow(query,
		sale.TenantID, sale.Type, sale.OriginalSaleID, sale.TotalAmount, sale.DiscountAmount,
		sale.DiscountID, sale.ActorID, sale.ClientID, sale.SaleTime, sale.CreatedAt,
	).Scan(&sale.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items
	            (sale_id, product_id, quantity, unit_price, line_total)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal,
	).Scan(&item.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *saleRepository) GetByID(tenantID, id int64) (*models.Sale, error) {
	sale := &models.Sale{}
	query := `SELECT id, tenant_id, type, original_sale_id, total_amount, discount_amount,
	                 discount_id, actor_id, client_id, sale_time, created_at
	          FROM sales
	          WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRow(query, tenantID, id).Scan(
		&sale.ID, &sale.TenantID, &sale.Type, &sale.OriginalSaleID, &sale.TotalAmount,
		&sale.DiscountAmount, &sale.DiscountID, &sale.ActorID, &sale.ClientID,
		&sale.SaleTime, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, id, err)
	}

	items, err := r.GetItems(tenantID, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (r *saleRepository) GetItems(tenantID, saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price, si.line_total,
	                 p.name AS product_name
	          FROM sale_items si
	          JOIN sales s ON si.sale_id = s.id
	          JOIN products p ON si.product_id = p.id
	          WHERE s.tenant_id = $1 AND si.sale_id = $2
	          ORDER BY si.id`
	rows, err := r.db.Query(query, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting sale items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.LineTotal, &item.ProductName,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(tenantID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, tenant_id, type, original_sale_id, total_amount, discount_amount,
	    discount_id, actor_id, client_id, sale_time, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM sales
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.Type != nil && *filters.Type != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}
	if filters.ClientID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND client_id = $%d", argCount))
		args = append(args, *filters.ClientID)
		argCount++
	}
	if filters.ActorID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND actor_id = $%d", argCount))
		args = append(args, *filters.ActorID)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND DATE(sale_time) = $%d", argCount))
		args = append(args, *filters.Date)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY sale_time DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.Type, &s.OriginalSaleID, &s.TotalAmount, &s.DiscountAmount,
			&s.DiscountID, &s.ActorID, &s.ClientID, &s.SaleTime, &s.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sales: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) HasReturnForSale(executor SQLExecutor, tenantID, originalSaleID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM sales
	            WHERE tenant_id = $1 AND type = $2 AND original_sale_id = $3
	          )`
	err := executor.QueryRow(query, tenantID, models.SaleTypeReturn, originalSaleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking for existing return of sale ID %d: %v", ErrDatabaseError, originalSaleID, err)
	}
	return exists, nil
}
