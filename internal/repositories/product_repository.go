package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product-related database
// operations. Stock mutations go through LockStock/AdjustStock so callers
// can hold a row lock for the duration of their transaction.
type ProductRepository interface {
	Create(executor SQLExecutor, product *models.Product) (int64, error)
	GetByID(tenantID, id int64) (*models.Product, error)
	GetBySKU(tenantID int64, sku string) (*models.Product, error)
	GetProducts(tenantID int64, filters models.ProductFilters) ([]models.Product, int, error)
	Update(executor SQLExecutor, product *models.Product) error
	Delete(executor SQLExecutor, tenantID, id int64) error

	// LockStock reads price, stock and name with a row lock (FOR UPDATE) so a
	// read-modify-write of stock_qty in the same transaction cannot lose
	// updates under concurrency.
	LockStock(executor SQLExecutor, tenantID, id int64) (price decimal.Decimal, stockQty int64, name string, err error)

	// AdjustStock applies a signed delta to stock_qty and returns the new
	// value. The schema's CHECK (stock_qty >= 0) backstops the service-level
	// availability check.
	AdjustStock(executor SQLExecutor, tenantID, id, delta int64) (int64, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (tenant_id, sku, name, category, price, stock_qty, supplier_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		product.TenantID, product.SKU, product.Name, product.Category,
		product.Price, product.StockQty, product.SupplierID, currentTime, currentTime,
	).Scan(&product.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime
	return product.ID, nil
}

func (r *productRepository) GetByID(tenantID, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, tenant_id, sku, name, category, price, stock_qty, supplier_id, created_at, updated_at
	          FROM products
	          WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRow(query, tenantID, id).Scan(
		&product.ID, &product.TenantID, &product.SKU, &product.Name, &product.Category,
		&product.Price, &product.StockQty, &product.SupplierID, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) GetBySKU(tenantID int64, sku string) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, tenant_id, sku, name, category, price, stock_qty, supplier_id, created_at, updated_at
	          FROM products
	          WHERE tenant_id = $1 AND sku = $2`
	err := r.db.QueryRow(query, tenantID, sku).Scan(
		&product.ID, &product.TenantID, &product.SKU, &product.Name, &product.Category,
		&product.Price, &product.StockQty, &product.SupplierID, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by SKU %s: %v", ErrDatabaseError, sku, err)
	}
	return product, nil
}

func (r *productRepository) GetProducts(tenantID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, tenant_id, sku, name, category, price, stock_qty, supplier_id, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM products
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.Search != nil && *filters.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}
	if filters.Category != nil && *filters.Category != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Category,
			&p.Price, &p.StockQty, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) Update(executor SQLExecutor, product *models.Product) error {
	// stock_qty is deliberately absent: it is owned by the stock ledger.
	query := `UPDATE products
	          SET sku = $1, name = $2, category = $3, price = $4, supplier_id = $5, updated_at = $6
	          WHERE tenant_id = $7 AND id = $8`
	result, err := executor.Exec(query,
		product.SKU, product.Name, product.Category, product.Price, product.SupplierID,
		time.Now(), product.TenantID, product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(executor SQLExecutor, tenantID, id int64) error {
	query := `DELETE FROM products WHERE tenant_id = $1 AND id = $2`
	result, err := executor.Exec(query, tenantID, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: product ID %d is referenced by other records (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) LockStock(executor SQLExecutor, tenantID, id int64) (decimal.Decimal, int64, string, error) {
	var price decimal.Decimal
	var stockQty int64
	var name string
	query := `SELECT price, stock_qty, name FROM products
	          WHERE tenant_id = $1 AND id = $2
	          FOR UPDATE`
	err := executor.QueryRow(query, tenantID, id).Scan(&price, &stockQty, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, 0, "", ErrNotFound
		}
		return decimal.Decimal{}, 0, "", fmt.Errorf("%w: locking stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return price, stockQty, name, nil
}

func (r *productRepository) AdjustStock(executor SQLExecutor, tenantID, id, delta int64) (int64, error) {
	var newQty int64
	query := `UPDATE products
	          SET stock_qty = stock_qty + $1, updated_at = $2
	          WHERE tenant_id = $3 AND id = $4
	          RETURNING stock_qty`
	err := executor.QueryRow(query, delta, time.Now(), tenantID, id).Scan(&newQty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "check_violation" {
			return 0, fmt.Errorf("%w: stock for product ID %d would go negative: %v", ErrDatabaseError, id, err)
		}
		return 0, fmt.Errorf("%w: adjusting stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newQty, nil
}
