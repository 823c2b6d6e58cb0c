package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartLine is one product line of the cart being priced.
type CartLine struct {
	ProductID int64
	Category  *string
	Quantity  int64
	LineTotal decimal.Decimal
}

// DiscountResult is the outcome of a successful validation.
type DiscountResult struct {
	Discount       *models.Discount `json:"discount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	FinalAmount    decimal.Decimal  `json:"final_amount"`
}

// CreateDiscountRequest is used for creating a discount code.
type CreateDiscountRequest struct {
	Code              string           `json:"code" binding:"required"`
	Type              string           `json:"type" binding:"required"`
	Value             decimal.Decimal  `json:"value"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	Scope             string           `json:"scope"`
	ProductIDs        []int64          `json:"product_ids"`
	Categories        []string         `json:"categories"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	UsageLimit        *int64           `json:"usage_limit"`
	IsActive          *bool            `json:"is_active"`
}

// DiscountService validates and applies discount codes. Validate is strictly
// read-only; the usage counter moves only via RedeemInTx at sale
// finalization.
type DiscountService interface {
	Validate(tenantID int64, code string, subtotal decimal.Decimal, lines []CartLine, now time.Time) (*DiscountResult, error)

	// RedeemInTx increments the usage counter inside the caller's sale
	// transaction, re-checking the limit under the update.
	RedeemInTx(executor repositories.SQLExecutor, tenantID, discountID int64) error

	Create(tenantID int64, req CreateDiscountRequest) (*models.Discount, error)
	GetByID(tenantID, id int64) (*models.Discount, error)
	GetDiscounts(tenantID int64, filters models.DiscountFilters) ([]models.Discount, int, error)
	Update(tenantID, id int64, req CreateDiscountRequest) (*models.Discount, error)
	Delete(tenantID, id int64) error
}

type discountService struct {
	discountRepo repositories.DiscountRepository
	db           *sql.DB
}

// NewDiscountService creates a new instance of DiscountService.
func NewDiscountService(dr repositories.DiscountRepository, db *sql.DB) DiscountService {
	return &discountService{discountRepo: dr, db: db}
}

// Validate checks eligibility in a fixed order: existence, active flag, date
// window, usage limit, minimum purchase, scope. The first failing rule wins.
func (s *discountService) Validate(tenantID int64, code string, subtotal decimal.Decimal, lines []CartLine, now time.Time) (*DiscountResult, error) {
	discount, err := s.discountRepo.GetByCode(tenantID, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: code %q", ErrDiscountNotFound, code)
		}
		return nil, fmt.Errorf("failed to get discount by code: %w", err)
	}

	if !discount.IsActive {
		return nil, fmt.Errorf("%w: code is inactive", ErrDiscountNotApplicable)
	}
	if discount.StartDate != nil && now.Before(*discount.StartDate) {
		return nil, fmt.Errorf("%w: code is not active yet", ErrDiscountNotApplicable)
	}
	if discount.EndDate != nil && now.After(*discount.EndDate) {
		return nil, fmt.Errorf("%w: code has expired", ErrDiscountNotApplicable)
	}
	if discount.UsageLimit != nil && discount.UsageCount >= *discount.UsageLimit {
		return nil, fmt.Errorf("%w: usage limit reached", ErrDiscountNotApplicable)
	}
	if discount.MinPurchaseAmount != nil && subtotal.LessThan(*discount.MinPurchaseAmount) {
		return nil, fmt.Errorf("%w: minimum purchase of %s not met", ErrDiscountNotApplicable, discount.MinPurchaseAmount)
	}

	eligibleTotal, err := s.eligibleTotal(discount, subtotal, lines)
	if err != nil {
		return nil, err
	}

	discountAmount := computeDiscountAmount(discount, subtotal, eligibleTotal)

	finalAmount := subtotal.Sub(discountAmount)
	if finalAmount.IsNegative() {
		finalAmount = decimal.Zero
	}

	return &DiscountResult{
		Discount:       discount,
		DiscountAmount: discountAmount,
		FinalAmount:    finalAmount,
	}, nil
}

// eligibleTotal returns the portion of the cart the discount applies to.
func (s *discountService) eligibleTotal(discount *models.Discount, subtotal decimal.Decimal, lines []CartLine) (decimal.Decimal, error) {
	switch discount.Scope {
	case models.DiscountScopeAll, "":
		return subtotal, nil
	case models.DiscountScopeProducts:
		allowed := make(map[int64]bool, len(discount.ProductIDs))
		for _, id := range discount.ProductIDs {
			allowed[id] = true
		}
		total := decimal.Zero
		for _, line := range lines {
			if allowed[line.ProductID] {
				total = total.Add(line.LineTotal)
			}
		}
		if total.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: no eligible products in cart", ErrDiscountNotApplicable)
		}
		return total, nil
	case models.DiscountScopeCategories:
		allowed := make(map[string]bool, len(discount.Categories))
		for _, c := range discount.Categories {
			allowed[c] = true
		}
		total := decimal.Zero
		for _, line := range lines {
			if line.Category != nil && allowed[*line.Category] {
				total = total.Add(line.LineTotal)
			}
		}
		if total.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: no eligible categories in cart", ErrDiscountNotApplicable)
		}
		return total, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown discount scope %q", ErrValidation, discount.Scope)
	}
}

// computeDiscountAmount applies the discount type to the eligible portion,
// clamping a fixed amount to the eligible total first, then the max cap.
func computeDiscountAmount(discount *models.Discount, subtotal, eligibleTotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch discount.Type {
	case models.DiscountTypePercentage:
		amount = eligibleTotal.Mul(discount.Value).Div(decimal.NewFromInt(100)).Round(2)
	case models.DiscountTypeFixed:
		amount = discount.Value
		if amount.GreaterThan(eligibleTotal) {
			amount = eligibleTotal
		}
	case models.DiscountTypeFreeShipping:
		// Shipping is not priced into the cart, so the monetary effect is zero;
		// the code is still recorded against the sale.
		amount = decimal.Zero
	default:
		amount = decimal.Zero
	}

	if discount.MaxDiscountAmount != nil && amount.GreaterThan(*discount.MaxDiscountAmount) {
		amount = *discount.MaxDiscountAmount
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount
}

func (s *discountService) RedeemInTx(executor repositories.SQLExecutor, tenantID, discountID int64) error {
	if err := s.discountRepo.IncrementUsage(executor, tenantID, discountID); err != nil {
		if errors.Is(err, repositories.ErrUsageLimitReached) {
			return fmt.Errorf("%w: usage limit reached", ErrDiscountNotApplicable)
		}
		return fmt.Errorf("failed to increment discount usage: %w", err)
	}
	return nil
}

func (s *discountService) Create(tenantID int64, req CreateDiscountRequest) (*models.Discount, error) {
	if err := validateDiscountRequest(req); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	scope := req.Scope
	if scope == "" {
		scope = models.DiscountScopeAll
	}

	discount := &models.Discount{
		TenantID:          tenantID,
		Code:              strings.TrimSpace(req.Code),
		Type:              req.Type,
		Value:             req.Value,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		Scope:             scope,
		ProductIDs:        req.ProductIDs,
		Categories:        req.Categories,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		IsActive:          isActive,
	}

	if _, err := s.discountRepo.Create(s.db, discount); err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}
	return discount, nil
}

func (s *discountService) GetByID(tenantID, id int64) (*models.Discount, error) {
	discount, err := s.discountRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrDiscountNotFound, id)
		}
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	return discount, nil
}

func (s *discountService) GetDiscounts(tenantID int64, filters models.DiscountFilters) ([]models.Discount, int, error) {
	discounts, totalCount, err := s.discountRepo.GetDiscounts(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get discounts: %w", err)
	}
	return discounts, totalCount, nil
}

func (s *discountService) Update(tenantID, id int64, req CreateDiscountRequest) (*models.Discount, error) {
	if err := validateDiscountRequest(req); err != nil {
		return nil, err
	}

	discount, err := s.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	discount.Code = strings.TrimSpace(req.Code)
	discount.Type = req.Type
	discount.Value = req.Value
	discount.MinPurchaseAmount = req.MinPurchaseAmount
	discount.MaxDiscountAmount = req.MaxDiscountAmount
	if req.Scope != "" {
		discount.Scope = req.Scope
	}
	discount.ProductIDs = req.ProductIDs
	discount.Categories = req.Categories
	discount.StartDate = req.StartDate
	discount.EndDate = req.EndDate
	discount.UsageLimit = req.UsageLimit
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}

	if err := s.discountRepo.Update(s.db, discount); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrDiscountNotFound, id)
		}
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}
	return discount, nil
}

func (s *discountService) Delete(tenantID, id int64) error {
	if err := s.discountRepo.Delete(s.db, tenantID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: ID %d", ErrDiscountNotFound, id)
		}
		return fmt.Errorf("failed to delete discount: %w", err)
	}
	return nil
}

func validateDiscountRequest(req CreateDiscountRequest) error {
	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("%w: discount code is required", ErrValidation)
	}
	switch req.Type {
	case models.DiscountTypePercentage:
		if req.Value.IsNegative() || req.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percentage value must be between 0 and 100", ErrValidation)
		}
	case models.DiscountTypeFixed:
		if req.Value.IsNegative() {
			return fmt.Errorf("%w: fixed value must not be negative", ErrValidation)
		}
	case models.DiscountTypeFreeShipping:
		// value is ignored
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrValidation, req.Type)
	}
	switch req.Scope {
	case "", models.DiscountScopeAll:
	case models.DiscountScopeProducts:
		if len(req.ProductIDs) == 0 {
			return fmt.Errorf("%w: product scope requires product IDs", ErrValidation)
		}
	case models.DiscountScopeCategories:
		if len(req.Categories) == 0 {
			return fmt.Errorf("%w: category scope requires categories", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown discount scope %q", ErrValidation, req.Scope)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return fmt.Errorf("%w: end date must not precede start date", ErrValidation)
	}
	if req.UsageLimit != nil && *req.UsageLimit <= 0 {
		return fmt.Errorf("%w: usage limit must be positive", ErrValidation)
	}
	return nil
}
