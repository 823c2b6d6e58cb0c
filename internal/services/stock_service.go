package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
)

// Stock movement reasons recorded in the ledger.
const (
	StockReasonSale      = "sale"
	StockReasonReturn    = "return"
	StockReasonReceipt   = "receipt"
	StockReasonWriteOff  = "write_off"
	StockReasonInventory = "inventory"
)

// StockService owns every mutation of product stock. Each change locks the
// product row, verifies availability, applies the delta and appends a ledger
// row in the same transaction, so stock_qty always equals the ledger sum.
type StockService interface {
	// Adjust runs inside the caller's transaction. Used by the sale processor
	// to compose stock changes with sale rows atomically.
	Adjust(executor repositories.SQLExecutor, tenantID, actorID, productID, delta int64, reason string) (*models.StockTransaction, error)

	ReceiveStock(tenantID, actorID, productID, quantity int64) (*models.StockTransaction, error)
	WriteOffStock(tenantID, actorID, productID, quantity int64) (*models.StockTransaction, error)
	SetInventoryCount(tenantID, actorID, productID, countedQty int64) (*models.StockTransaction, error)
	GetCurrentStock(tenantID, productID int64) (int64, error)
	GetHistory(tenantID int64, filters models.StockHistoryFilters) ([]models.StockTransaction, int, error)
	Reconcile(tenantID, productID int64) (stockQty, ledgerSum int64, err error)
}

type stockService struct {
	productRepo repositories.ProductRepository
	stockRepo   repositories.StockTransactionRepository
	db          *sql.DB
	sink        audit.Sink
}

// NewStockService creates a new instance of StockService.
func NewStockService(
	pr repositories.ProductRepository,
	sr repositories.StockTransactionRepository,
	db *sql.DB,
	sink audit.Sink,
) StockService {
	return &stockService{productRepo: pr, stockRepo: sr, db: db, sink: sink}
}

func (s *stockService) Adjust(executor repositories.SQLExecutor, tenantID, actorID, productID, delta int64, reason string) (*models.StockTransaction, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: stock delta must be non-zero", ErrValidation)
	}

	_, stockQty, _, err := s.productRepo.LockStock(executor, tenantID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	if delta < 0 && stockQty+delta < 0 {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Available: stockQty,
			Requested: -delta,
		}
	}

	if _, err := s.productRepo.AdjustStock(executor, tenantID, productID, delta); err != nil {
		return nil, fmt.Errorf("failed to adjust stock for product %d: %w", productID, err)
	}

	stockTx := &models.StockTransaction{
		TenantID:  tenantID,
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		ActorID:   actorID,
		CreatedAt: time.Now(),
	}
	if _, err := s.stockRepo.Create(executor, stockTx); err != nil {
		return nil, fmt.Errorf("failed to record stock transaction for product %d: %w", productID, err)
	}
	return stockTx, nil
}

func (s *stockService) adjustInOwnTx(tenantID, actorID, productID, delta int64, reason string) (*models.StockTransaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	stockTx, err := s.Adjust(tx, tenantID, actorID, productID, delta, reason)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock transaction: %w", err)
	}

	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionStockAdjusted,
		EntityType: "product",
		EntityID:   productID,
		Details:    fmt.Sprintf("%s: %+d", reason, delta),
		OccurredAt: time.Now(),
	})
	return stockTx, nil
}

func (s *stockService) ReceiveStock(tenantID, actorID, productID, quantity int64) (*models.StockTransaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: receipt quantity must be positive", ErrValidation)
	}
	return s.adjustInOwnTx(tenantID, actorID, productID, quantity, StockReasonReceipt)
}

func (s *stockService) WriteOffStock(tenantID, actorID, productID, quantity int64) (*models.StockTransaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: write-off quantity must be positive", ErrValidation)
	}
	return s.adjustInOwnTx(tenantID, actorID, productID, -quantity, StockReasonWriteOff)
}

// SetInventoryCount records the result of a physical count. The ledger row
// holds the correction delta, not the counted value.
func (s *stockService) SetInventoryCount(tenantID, actorID, productID, countedQty int64) (*models.StockTransaction, error) {
	if countedQty < 0 {
		return nil, fmt.Errorf("%w: counted quantity must not be negative", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	_, stockQty, _, err := s.productRepo.LockStock(tx, tenantID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}

	delta := countedQty - stockQty
	if delta == 0 {
		// Count matches: nothing to correct, nothing to log.
		return nil, nil
	}

	stockTx, err := s.Adjust(tx, tenantID, actorID, productID, delta, StockReasonInventory)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit inventory correction: %w", err)
	}

	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionStockAdjusted,
		EntityType: "product",
		EntityID:   productID,
		Details:    fmt.Sprintf("%s: counted %d, correction %+d", StockReasonInventory, countedQty, delta),
		OccurredAt: time.Now(),
	})
	return stockTx, nil
}

func (s *stockService) GetCurrentStock(tenantID, productID int64) (int64, error) {
	product, err := s.productRepo.GetByID(tenantID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
		}
		return 0, fmt.Errorf("failed to get product %d: %w", productID, err)
	}
	return product.StockQty, nil
}

func (s *stockService) GetHistory(tenantID int64, filters models.StockHistoryFilters) ([]models.StockTransaction, int, error) {
	transactions, totalCount, err := s.stockRepo.GetHistory(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stock history: %w", err)
	}
	return transactions, totalCount, nil
}

// Reconcile returns the stored quantity and the ledger sum side by side.
// They must match; a divergence means a write bypassed the ledger.
func (s *stockService) Reconcile(tenantID, productID int64) (int64, int64, error) {
	product, err := s.productRepo.GetByID(tenantID, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, 0, fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
		}
		return 0, 0, fmt.Errorf("failed to get product %d: %w", productID, err)
	}

	ledgerSum, err := s.stockRepo.SumDeltas(tenantID, productID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum stock ledger for product %d: %w", productID, err)
	}
	return product.StockQty, ledgerSum, nil
}
