package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
)

// CreateSupplierRequest is used for creating or updating a supplier.
type CreateSupplierRequest struct {
	Name        string  `json:"name" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

// SupplierService manages the tenant's supplier directory.
type SupplierService interface {
	Create(tenantID int64, req CreateSupplierRequest) (*models.Supplier, error)
	GetByID(tenantID, id int64) (*models.Supplier, error)
	GetSuppliers(tenantID int64, filters models.SupplierFilters) ([]models.Supplier, int, error)
	Update(tenantID, id int64, req CreateSupplierRequest) (*models.Supplier, error)
	Delete(tenantID, id int64) error
}

type supplierService struct {
	supplierRepo repositories.SupplierRepository
	db           *sql.DB
}

// NewSupplierService creates a new instance of SupplierService.
func NewSupplierService(sr repositories.SupplierRepository, db *sql.DB) SupplierService {
	return &supplierService{supplierRepo: sr, db: db}
}

func (s *supplierService) Create(tenantID int64, req CreateSupplierRequest) (*models.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: supplier name is required", ErrValidation)
	}

	supplier := &models.Supplier{
		TenantID:    tenantID,
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	if _, err := s.supplierRepo.Create(s.db, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) GetByID(tenantID, id int64) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrSupplierNotFound, id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) GetSuppliers(tenantID int64, filters models.SupplierFilters) ([]models.Supplier, int, error) {
	suppliers, totalCount, err := s.supplierRepo.GetSuppliers(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get suppliers: %w", err)
	}
	return suppliers, totalCount, nil
}

func (s *supplierService) Update(tenantID, id int64, req CreateSupplierRequest) (*models.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: supplier name is required", ErrValidation)
	}

	supplier, err := s.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = strings.TrimSpace(req.Name)
	supplier.PhoneNumber = req.PhoneNumber
	supplier.Email = req.Email
	supplier.Address = req.Address
	supplier.Notes = req.Notes

	if err := s.supplierRepo.Update(s.db, supplier); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrSupplierNotFound, id)
		}
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) Delete(tenantID, id int64) error {
	if err := s.supplierRepo.Delete(s.db, tenantID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrSupplierNotFound, id)
		}
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}
