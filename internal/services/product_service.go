package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateProductRequest is used for creating or updating a product.
type CreateProductRequest struct {
	SKU          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     *string         `json:"category"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int64           `json:"initial_stock"`
	SupplierID   *int64          `json:"supplier_id"`
}

// ProductService manages the product catalog. Stock is never written here
// directly: initial stock goes through the stock ledger so the product's
// quantity and its ledger stay reconciled from day one.
type ProductService interface {
	Create(tenantID, actorID int64, req CreateProductRequest) (*models.Product, error)
	GetByID(tenantID, id int64) (*models.Product, error)
	GetProducts(tenantID int64, filters models.ProductFilters) ([]models.Product, int, error)
	Update(tenantID, id int64, req CreateProductRequest) (*models.Product, error)
	Delete(tenantID, id int64) error
}

type productService struct {
	productRepo repositories.ProductRepository
	stockSvc    StockService
	db          *sql.DB
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, stockSvc StockService, db *sql.DB) ProductService {
	return &productService{productRepo: pr, stockSvc: stockSvc, db: db}
}

func (s *productService) Create(tenantID, actorID int64, req CreateProductRequest) (*models.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	product := &models.Product{
		TenantID:   tenantID,
		SKU:        strings.TrimSpace(req.SKU),
		Name:       strings.TrimSpace(req.Name),
		Category:   req.Category,
		Price:      req.Price,
		StockQty:   0,
		SupplierID: req.SupplierID,
	}
	if _, err := s.productRepo.Create(tx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if req.InitialStock > 0 {
		if _, err := s.stockSvc.Adjust(tx, tenantID, actorID, product.ID, req.InitialStock, StockReasonReceipt); err != nil {
			return nil, err
		}
		product.StockQty = req.InitialStock
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return product, nil
}

func (s *productService) GetByID(tenantID, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProducts(tenantID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products, totalCount, err := s.productRepo.GetProducts(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, totalCount, nil
}

func (s *productService) Update(tenantID, id int64, req CreateProductRequest) (*models.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	product.SKU = strings.TrimSpace(req.SKU)
	product.Name = strings.TrimSpace(req.Name)
	product.Category = req.Category
	product.Price = req.Price
	product.SupplierID = req.SupplierID

	if err := s.productRepo.Update(s.db, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(tenantID, id int64) error {
	if err := s.productRepo.Delete(s.db, tenantID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrProductNotFound, id)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func validateProductRequest(req CreateProductRequest) error {
	if strings.TrimSpace(req.SKU) == "" {
		return fmt.Errorf("%w: SKU is required", ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if req.InitialStock < 0 {
		return fmt.Errorf("%w: initial stock must not be negative", ErrValidation)
	}
	return nil
}
