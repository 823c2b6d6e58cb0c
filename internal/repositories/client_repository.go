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

// ClientRepository defines the interface for client-related database
// operations. UpdateDebtAmount is reserved for the debt ledger; the regular
// Update never touches debt_amount.
type ClientRepository interface {
	Create(executor SQLExecutor, client *models.Client) (int64, error)
	GetByID(tenantID, id int64) (*models.Client, error)
	GetClients(tenantID int64, filters models.ClientFilters) ([]models.Client, int, error)
	Update(executor SQLExecutor, client *models.Client) error
	Delete(executor SQLExecutor, tenantID, id int64) error
	UpdateDebtAmount(executor SQLExecutor, tenantID, clientID int64, amount decimal.Decimal) error
}

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(executor SQLExecutor, client *models.Client) (int64, error) {
	query := `INSERT INTO clients
	            (tenant_id, full_name, phone_number, email, notes, debt_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		client.TenantID, client.FullName, client.PhoneNumber, client.Email, client.Notes,
		currentTime, currentTime,
	).Scan(&client.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: client phone number already exists (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating client: %v", ErrDatabaseError, err)
	}
	client.DebtAmount = decimal.Zero
	client.CreatedAt = currentTime
	client.UpdatedAt = currentTime
	return client.ID, nil
}

func (r *clientRepository) GetByID(tenantID, id int64) (*models.Client, error) {
	client := &models.Client{}
	query := `SELECT id, tenant_id, full_name, phone_number, email, notes, debt_amount, created_at, updated_at
	          FROM clients
	          WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRow(query, tenantID, id).Scan(
		&client.ID, &client.TenantID, &client.FullName, &client.PhoneNumber, &client.Email,
		&client.Notes, &client.DebtAmount, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by ID %d: %v", ErrDatabaseError, id, err)
	}
	return client, nil
}

func (r *clientRepository) GetClients(tenantID int64, filters models.ClientFilters) ([]models.Client, int, error) {
	clients := []models.Client{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, tenant_id, full_name, phone_number, email, notes, debt_amount, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM clients
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.Search != nil && *filters.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (full_name ILIKE $%d OR phone_number ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}
	if filters.HasDebt != nil && *filters.HasDebt {
		queryBuilder.WriteString(" AND debt_amount > 0")
	}

	queryBuilder.WriteString(" ORDER BY full_name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Client
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.FullName, &c.PhoneNumber, &c.Email, &c.Notes,
			&c.DebtAmount, &c.CreatedAt, &c.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating clients: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

func (r *clientRepository) Update(executor SQLExecutor, client *models.Client) error {
	query := `UPDATE clients
	          SET full_name = $1, phone_number = $2, email = $3, notes = $4, updated_at = $5
	          WHERE tenant_id = $6 AND id = $7`
	result, err := executor.Exec(query,
		client.FullName, client.PhoneNumber, client.Email, client.Notes,
		time.Now(), client.TenantID, client.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: client phone number already exists (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating client ID %d: %v", ErrDatabaseError, client.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) Delete(executor SQLExecutor, tenantID, id int64) error {
	query := `DELETE FROM clients WHERE tenant_id = $1 AND id = $2`
	result, err := executor.Exec(query, tenantID, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: client ID %d has debts or sales (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting client ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) UpdateDebtAmount(executor SQLExecutor, tenantID, clientID int64, amount decimal.Decimal) error {
	query := `UPDATE clients SET debt_amount = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`
	result, err := executor.Exec(query, amount, time.Now(), tenantID, clientID)
	if err != nil {
		return fmt.Errorf("%w: updating debt amount for client ID %d: %v", ErrDatabaseError, clientID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
