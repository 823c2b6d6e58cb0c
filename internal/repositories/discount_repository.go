package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"

	"github.com/lib/pq"
)

// DiscountRepository persists discount codes. Reads never mutate;
// IncrementUsage is the single write path for usage_count and re-checks the
// limit inside the UPDATE so two concurrent sales cannot both take the last
// redemption.
type DiscountRepository interface {
	Create(executor SQLExecutor, discount *models.Discount) (int64, error)
	GetByID(tenantID, id int64) (*models.Discount, error)
	GetByCode(tenantID int64, code string) (*models.Discount, error)
	GetDiscounts(tenantID int64, filters models.DiscountFilters) ([]models.Discount, int, error)
	Update(executor SQLExecutor, discount *models.Discount) error
	Delete(executor SQLExecutor, tenantID, id int64) error
	IncrementUsage(executor SQLExecutor, tenantID, id int64) error
}

// ErrUsageLimitReached is returned by IncrementUsage when the guarded update
// matches no row because the limit was hit by a concurrent redemption.
var ErrUsageLimitReached = errors.New("discount usage limit reached")

type discountRepository struct {
	db *sql.DB
}

// NewDiscountRepository creates a new instance of DiscountRepository.
func NewDiscountRepository(db *sql.DB) DiscountRepository {
	return &discountRepository{db: db}
}

const discountColumns = `id, tenant_id, code, type, value, min_purchase_amount, max_discount_amount,
	scope, product_ids, categories, start_date, end_date, usage_limit, usage_count, is_active,
	created_at, updated_at`

func scanDiscount(row interface{ Scan(...interface{}) error }, d *models.Discount) error {
	var productIDs pq.Int64Array
	var categories pq.StringArray
	err := row.Scan(
		&d.ID, &d.TenantID, &d.Code, &d.Type, &d.Value, &d.MinPurchaseAmount, &d.MaxDiscountAmount,
		&d.Scope, &productIDs, &categories, &d.StartDate, &d.EndDate, &d.UsageLimit, &d.UsageCount,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	d.ProductIDs = []int64(productIDs)
	d.Categories = []string(categories)
	return nil
}

func (r *discountRepository) Create(executor SQLExecutor, discount *models.Discount) (int64, error) {
	query := `INSERT INTO discounts
	            (tenant_id, code, type, value, min_purchase_amount, max_discount_amount, scope,
	             product_ids, categories, start_date, end_date, usage_limit, usage_count, is_active,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $14, $15)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		discount.TenantID, discount.Code, discount.Type, discount.Value,
		discount.MinPurchaseAmount, discount.MaxDiscountAmount, discount.Scope,
		pq.Array(discount.ProductIDs), pq.Array(discount.Categories),
		discount.StartDate, discount.EndDate, discount.UsageLimit, discount.IsActive,
		currentTime, currentTime,
	).Scan(&discount.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: discount code '%s' already exists (constraint: %s)", ErrDuplicateKey, discount.Code, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating discount: %v", ErrDatabaseError, err)
	}
	discount.UsageCount = 0
	discount.CreatedAt = currentTime
	discount.UpdatedAt = currentTime
	return discount.ID, nil
}

func (r *discountRepository) GetByID(tenantID, id int64) (*models.Discount, error) {
	discount := &models.Discount{}
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE tenant_id = $1 AND id = $2`
	err := scanDiscount(r.db.QueryRow(query, tenantID, id), discount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting discount by ID %d: %v", ErrDatabaseError, id, err)
	}
	return discount, nil
}

func (r *discountRepository) GetByCode(tenantID int64, code string) (*models.Discount, error) {
	discount := &models.Discount{}
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE tenant_id = $1 AND code = $2`
	err := scanDiscount(r.db.QueryRow(query, tenantID, code), discount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting discount by code: %v", ErrDatabaseError, err)
	}
	return discount, nil
}

func (r *discountRepository) GetDiscounts(tenantID int64, filters models.DiscountFilters) ([]models.Discount, int, error) {
	discounts := []models.Discount{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + discountColumns + `,
	    COUNT(*) OVER() AS total_count
	  FROM discounts
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.IsActive != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND is_active = $%d", argCount))
		args = append(args, *filters.IsActive)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND code ILIKE $%d", argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting discounts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Discount
		var productIDs pq.Int64Array
		var categories pq.StringArray
		if err := rows.Scan(
			&d.ID, &d.TenantID, &d.Code, &d.Type, &d.Value, &d.MinPurchaseAmount, &d.MaxDiscountAmount,
			&d.Scope, &productIDs, &categories, &d.StartDate, &d.EndDate, &d.UsageLimit, &d.UsageCount,
			&d.IsActive, &d.CreatedAt, &d.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning discount: %v", ErrDatabaseError, err)
		}
		d.ProductIDs = []int64(productIDs)
		d.Categories = []string(categories)
		discounts = append(discounts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating discounts: %v", ErrDatabaseError, err)
	}
	return discounts, totalCount, nil
}

func (r *discountRepository) Update(executor SQLExecutor, discount *models.Discount) error {
	query := `UPDATE discounts
	          SET code = $1, type = $2, value = $3, min_purchase_amount = $4, max_discount_amount = $5,
	              scope = $6, product_ids = $7, categories = $8, start_date = $9, end_date = $10,
	              usage_limit = $11, is_active = $12, updated_at = $13
	          WHERE tenant_id = $14 AND id = $15`
	result, err := executor.Exec(query,
		discount.Code, discount.Type, discount.Value,
		discount.MinPurchaseAmount, discount.MaxDiscountAmount, discount.Scope,
		pq.Array(discount.ProductIDs), pq.Array(discount.Categories),
		discount.StartDate, discount.EndDate, discount.UsageLimit, discount.IsActive,
		time.Now(), discount.TenantID, discount.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: discount code '%s' already exists (constraint: %s)", ErrDuplicateKey, discount.Code, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating discount ID %d: %v", ErrDatabaseError, discount.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *discountRepository) Delete(executor SQLExecutor, tenantID, id int64) error {
	query := `DELETE FROM discounts WHERE tenant_id = $1 AND id = $2`
	result, err := executor.Exec(query, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: deleting discount ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *discountRepository) IncrementUsage(executor SQLExecutor, tenantID, id int64) error {
	query := `UPDATE discounts
	          SET usage_count = usage_count + 1, updated_at = $1
	          WHERE tenant_id = $2 AND id = $3
	            AND (usage_limit IS NULL OR usage_count < usage_limit)`
	result, err := executor.Exec(query, time.Now(), tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: incrementing usage for discount ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrUsageLimitReached
	}
	return nil
}
