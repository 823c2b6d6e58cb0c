package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
)

// CreateClientRequest is used for creating or updating a client. Debt is
// absent on purpose: the aggregate belongs to the debt ledger.
type CreateClientRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Notes       *string `json:"notes"`
}

// ClientService manages the tenant's customer directory.
type ClientService interface {
	Create(tenantID int64, req CreateClientRequest) (*models.Client, error)
	GetByID(tenantID, id int64) (*models.Client, error)
	GetClients(tenantID int64, filters models.ClientFilters) ([]models.Client, int, error)
	Update(tenantID, id int64, req CreateClientRequest) (*models.Client, error)
	Delete(tenantID, id int64) error
}

type clientService struct {
	clientRepo repositories.ClientRepository
	db         *sql.DB
}

// NewClientService creates a new instance of ClientService.
func NewClientService(cr repositories.ClientRepository, db *sql.DB) ClientService {
	return &clientService{clientRepo: cr, db: db}
}

func (s *clientService) Create(tenantID int64, req CreateClientRequest) (*models.Client, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrValidation)
	}

	client := &models.Client{
		TenantID:    tenantID,
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Notes:       req.Notes,
	}
	if _, err := s.clientRepo.Create(s.db, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (s *clientService) GetByID(tenantID, id int64) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrClientNotFound, id)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClients(tenantID int64, filters models.ClientFilters) ([]models.Client, int, error) {
	clients, totalCount, err := s.clientRepo.GetClients(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get clients: %w", err)
	}
	return clients, totalCount, nil
}

func (s *clientService) Update(tenantID, id int64, req CreateClientRequest) (*models.Client, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrValidation)
	}

	client, err := s.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	client.FullName = strings.TrimSpace(req.FullName)
	client.PhoneNumber = req.PhoneNumber
	client.Email = req.Email
	client.Notes = req.Notes

	if err := s.clientRepo.Update(s.db, client); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrClientNotFound, id)
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

func (s *clientService) Delete(tenantID, id int64) error {
	if err := s.clientRepo.Delete(s.db, tenantID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrClientNotFound, id)
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
