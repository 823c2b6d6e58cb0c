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

// GiftCardRepository persists gift cards and their usage log. Redemption and
// refund paths lock the card row with the ForUpdate variants.
type GiftCardRepository interface {
	Create(executor SQLExecutor, card *models.GiftCard) (int64, error)
	GetByID(tenantID, id int64) (*models.GiftCard, error)
	GetByIDForUpdate(executor SQLExecutor, tenantID, id int64) (*models.GiftCard, error)
	GetByCode(tenantID int64, code string) (*models.GiftCard, error)
	GetByCodeForUpdate(executor SQLExecutor, tenantID int64, code string) (*models.GiftCard, error)
	GetGiftCards(tenantID int64, filters models.GiftCardFilters) ([]models.GiftCard, int, error)
	UpdateBalance(executor SQLExecutor, card *models.GiftCard) error
	UpdateStatus(executor SQLExecutor, tenantID, id int64, status string) error
	CreateUsage(executor SQLExecutor, usage *models.GiftCardUsage) (int64, error)
	GetUsages(tenantID, cardID int64) ([]models.GiftCardUsage, error)
	FindUsageForSale(executor SQLExecutor, tenantID, cardID, saleID int64) (*models.GiftCardUsage, error)
	DeleteUsage(executor SQLExecutor, tenantID, usageID int64) error
}

type giftCardRepository struct {
	db *sql.DB
}

// NewGiftCardRepository creates a new instance of GiftCardRepository.
func NewGiftCardRepository(db *sql.DB) GiftCardRepository {
	return &giftCardRepository{db: db}
}

const giftCardColumns = `id, tenant_id, code, number, type, amount, remaining_amount,
	status, expires_at, store_id, note, issued_by, created_at, updated_at`

func scanGiftCard(row interface{ Scan(...interface{}) error }, g *models.GiftCard) error {
	return row.Scan(
		&g.ID, &g.TenantID, &g.Code, &g.Number, &g.Type, &g.Amount, &g.RemainingAmount,
		&g.Status, &g.ExpiresAt, &g.StoreID, &g.Note, &g.IssuedBy, &g.CreatedAt, &g.UpdatedAt,
	)
}

func (r *giftCardRepository) Create(executor SQLExecutor, card *models.GiftCard) (int64, error) {
	query := `INSERT INTO gift_cards
	            (tenant_id, code, number, type, amount, remaining_amount, status,
	             expires_at, store_id, note, issued_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		card.TenantID, card.Code, card.Number, card.Type, card.Amount, card.Status,
		card.ExpiresAt, card.StoreID, card.Note, card.IssuedBy, currentTime, currentTime,
	).Scan(&card.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: gift card code already exists (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating gift card: %v", ErrDatabaseError, err)
	}
	card.RemainingAmount = card.Amount
	card.CreatedAt = currentTime
	card.UpdatedAt = currentTime
	return card.ID, nil
}

func (r *giftCardRepository) GetByID(tenantID, id int64) (*models.GiftCard, error) {
	card := &models.GiftCard{}
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards WHERE tenant_id = $1 AND id = $2`
	err := scanGiftCard(r.db.QueryRow(query, tenantID, id), card)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting gift card by ID %d: %v", ErrDatabaseError, id, err)
	}
	return card, nil
}

func (r *giftCardRepository) GetByIDForUpdate(executor SQLExecutor, tenantID, id int64) (*models.GiftCard, error) {
	card := &models.GiftCard{}
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	err := scanGiftCard(executor.QueryRow(query, tenantID, id), card)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking gift card ID %d: %v", ErrDatabaseError, id, err)
	}
	return card, nil
}

func (r *giftCardRepository) GetByCode(tenantID int64, code string) (*models.GiftCard, error) {
	card := &models.GiftCard{}
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards WHERE tenant_id = $1 AND code = $2`
	err := scanGiftCard(r.db.QueryRow(query, tenantID, code), card)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting gift card by code: %v", ErrDatabaseError, err)
	}
	return card, nil
}

func (r *giftCardRepository) GetByCodeForUpdate(executor SQLExecutor, tenantID int64, code string) (*models.GiftCard, error) {
	card := &models.GiftCard{}
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards WHERE tenant_id = $1 AND code = $2 FOR UPDATE`
	err := scanGiftCard(executor.QueryRow(query, tenantID, code), card)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking gift card by code: %v", ErrDatabaseError, err)
	}
	return card, nil
}

func (r *giftCardRepository) GetGiftCards(tenantID int64, filters models.GiftCardFilters) ([]models.GiftCard, int, error) {
	cards := []models.GiftCard{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + giftCardColumns + `,
	    COUNT(*) OVER() AS total_count
	  FROM gift_cards
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if filters.Status != nil && *filters.Status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (code ILIKE $%d OR number ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting gift cards: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.GiftCard
		if err := rows.Scan(
			&g.ID, &g.TenantID, &g.Code, &g.Number, &g.Type, &g.Amount, &g.RemainingAmount,
			&g.Status, &g.ExpiresAt, &g.StoreID, &g.Note, &g.IssuedBy, &g.CreatedAt, &g.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning gift card: %v", ErrDatabaseError, err)
		}
		cards = append(cards, g)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating gift cards: %v", ErrDatabaseError, err)
	}
	return cards, totalCount, nil
}

func (r *giftCardRepository) UpdateBalance(executor SQLExecutor, card *models.GiftCard) error {
	query := `UPDATE gift_cards
	          SET remaining_amount = $1, status = $2, updated_at = $3
	          WHERE tenant_id = $4 AND id = $5`
	result, err := executor.Exec(query,
		card.RemainingAmount, card.Status, time.Now(), card.TenantID, card.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating balance for gift card ID %d: %v", ErrDatabaseError, card.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *giftCardRepository) UpdateStatus(executor SQLExecutor, tenantID, id int64, status string) error {
	query := `UPDATE gift_cards SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`
	result, err := executor.Exec(query, status, time.Now(), tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: updating status for gift card ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *giftCardRepository) CreateUsage(executor SQLExecutor, usage *models.GiftCardUsage) (int64, error) {
	query := `INSERT INTO gift_card_usages
	            (gift_card_id, tenant_id, sale_id, amount, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	usage.CreatedAt = time.Now()

	err := executor.QueryRow(query,
		usage.GiftCardID, usage.TenantID, usage.SaleID, usage.Amount, usage.CreatedAt,
	).Scan(&usage.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating gift card usage: %v", ErrDatabaseError, err)
	}
	return usage.ID, nil
}

func (r *giftCardRepository) GetUsages(tenantID, cardID int64) ([]models.GiftCardUsage, error) {
	usages := []models.GiftCardUsage{}
	query := `SELECT id, gift_card_id, tenant_id, sale_id, amount, created_at
	          FROM gift_card_usages
	          WHERE tenant_id = $1 AND gift_card_id = $2
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(query, tenantID, cardID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting usages for gift card ID %d: %v", ErrDatabaseError, cardID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.GiftCardUsage
		if err := rows.Scan(&u.ID, &u.GiftCardID, &u.TenantID, &u.SaleID, &u.Amount, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning gift card usage: %v", ErrDatabaseError, err)
		}
		usages = append(usages, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating gift card usages: %v", ErrDatabaseError, err)
	}
	return usages, nil
}

func (r *giftCardRepository) FindUsageForSale(executor SQLExecutor, tenantID, cardID, saleID int64) (*models.GiftCardUsage, error) {
	usage := &models.GiftCardUsage{}
	query := `SELECT id, gift_card_id, tenant_id, sale_id, amount, created_at
	          FROM gift_card_usages
	          WHERE tenant_id = $1 AND gift_card_id = $2 AND sale_id = $3
	          ORDER BY id
	          LIMIT 1`
	err := executor.QueryRow(query, tenantID, cardID, saleID).Scan(
		&usage.ID, &usage.GiftCardID, &usage.TenantID, &usage.SaleID, &usage.Amount, &usage.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding usage for gift card ID %d and sale ID %d: %v", ErrDatabaseError, cardID, saleID, err)
	}
	return usage, nil
}

func (r *giftCardRepository) DeleteUsage(executor SQLExecutor, tenantID, usageID int64) error {
	query := `DELETE FROM gift_card_usages WHERE tenant_id = $1 AND id = $2`
	result, err := executor.Exec(query, tenantID, usageID)
	if err != nil {
		return fmt.Errorf("%w: deleting gift card usage ID %d: %v", ErrDatabaseError, usageID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
