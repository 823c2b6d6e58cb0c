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

// SupplierRepository defines the interface for supplier-related database operations.
type SupplierRepository interface {
	Create(executor SQLExecutor, supplier *models.Supplier) (int64, error)
	GetByID(tenantID, id int64) (*models.Supplier, error)
	GetSuppliers(tenantID int64, filters models.SupplierFilters) ([]models.Supplier, int, error)
	Update(executor SQLExecutor, supplier *models.Supplier) error
	Delete(executor SQLExecutor, tenantID, id int64) error
}

type supplierRepository struct {
	db *sql.DB
}

// NewSupplierRepository creates a new instance of SupplierRepository.
func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(executor SQLExecutor, supplier *models.Supplier) (int64, error) {
	query := `INSERT INTO suppliers
	            (tenant_id, name, phone_number, email, address, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		supplier.TenantID, supplier.Name, supplier.PhoneNumber, supplier.Email,
		supplier.Address, supplier.Notes, currentTime, currentTime,
	).Scan(&supplier.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: supplier '%s' already exists (constraint: %s)", ErrDuplicateKey, supplier.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating supplier: %v", ErrDatabaseError, err)
	}
	supplier.CreatedAt = currentTime
	supplier.UpdatedAt = currentTime
	return supplier.ID, nil
}

func (r *supplierRepository) GetByID(tenantID, id int64) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	query := `SELECT id, tenant_id, name, phone_number, email, address, notes, created_at, updated_at
	          FROM suppliers
	          WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRow(query, tenantID, id).Scan(
		&supplier.ID, &supplier.TenantID, &supplier.Name, &supplier.PhoneNumber,
		&supplier.Email, &supplier.Address, &supplier.Notes, &supplier.CreatedAt, &supplier.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier by ID %d: %v", ErrDatabaseError, id, err)
	}
	return supplier, nil
}

func (r *supplierRepository) GetSuppliers(tenantID int64, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	suppliers := []models.Supplier{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, tenant_id, name, phone_number, email, address, notes, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM suppliers
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.Search != nil && *filters.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR phone_number ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.Name, &s.PhoneNumber, &s.Email, &s.Address, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
		}
		suppliers = append(suppliers, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating suppliers: %v", ErrDatabaseError, err)
	}
	return suppliers, totalCount, nil
}

func (r *supplierRepository) Update(executor SQLExecutor, supplier *models.Supplier) error {
	query := `UPDATE suppliers
	          SET name = $1, phone_number = $2, email = $3, address = $4, notes = $5, updated_at = $6
	          WHERE tenant_id = $7 AND id = $8`
	result, err := executor.Exec(query,
		supplier.Name, supplier.PhoneNumber, supplier.Email, supplier.Address, supplier.Notes,
		time.Now(), supplier.TenantID, supplier.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: supplier '%s' already exists (constraint: %s)", ErrDuplicateKey, supplier.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating supplier ID %d: %v", ErrDatabaseError, supplier.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *supplierRepository) Delete(executor SQLExecutor, tenantID, id int64) error {
	query := `DELETE FROM suppliers WHERE tenant_id = $1 AND id = $2`
	result, err := executor.Exec(query, tenantID, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: supplier ID %d is referenced by products (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting supplier ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
