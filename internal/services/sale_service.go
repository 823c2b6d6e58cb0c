package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// SaleLineRequest is one product/quantity line of a sale.
type SaleLineRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int64 `json:"quantity" binding:"required,gt=0"`
}

// CreateSaleRequest is used for finalizing a sale.
type CreateSaleRequest struct {
	ClientID       *int64            `json:"client_id"`
	Items          []SaleLineRequest `json:"items" binding:"required,dive"`
	DiscountCode   *string           `json:"discount_code"`
	GiftCardCode   *string           `json:"gift_card_code"`
	GiftCardAmount *decimal.Decimal  `json:"gift_card_amount"`
}

// SaleService finalizes sales and returns. A sale is one transaction: stock
// is locked and decremented with ledger rows, the discount is applied and
// redeemed, the sale and its items are inserted, and any gift card payment
// is drawn down. Either everything commits or nothing does.
type SaleService interface {
	CreateSale(tenantID, actorID int64, req CreateSaleRequest) (*models.Sale, error)
	CreateReturn(tenantID, actorID, originalSaleID int64) (*models.Sale, error)
	GetByID(tenantID, id int64) (*models.Sale, error)
	GetSales(tenantID int64, filters models.SaleFilters) ([]models.Sale, int, error)
}

type saleService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	stockSvc    StockService
	discountSvc DiscountService
	giftCardSvc GiftCardService
	db          *sql.DB
	sink        audit.Sink
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	sr repositories.SaleRepository,
	pr repositories.ProductRepository,
	stockSvc StockService,
	discountSvc DiscountService,
	giftCardSvc GiftCardService,
	db *sql.DB,
	sink audit.Sink,
) SaleService {
	return &saleService{
		saleRepo:    sr,
		productRepo: pr,
		stockSvc:    stockSvc,
		discountSvc: discountSvc,
		giftCardSvc: giftCardSvc,
		db:          db,
		sink:        sink,
	}
}

func (s *saleService) CreateSale(tenantID, actorID int64, req CreateSaleRequest) (*models.Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one item", ErrValidation)
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product ID %d must be positive", ErrValidation, line.ProductID)
		}
	}

	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	subtotal := decimal.Zero
	itemsToCreate := make([]models.SaleItem, 0, len(req.Items))
	cartLines := make([]CartLine, 0, len(req.Items))

	for _, line := range req.Items {
		// Category is a stable attribute; only the price/stock read needs
		// the row lock.
		product, err := s.productRepo.GetByID(tenantID, line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("failed to get product %d: %w", line.ProductID, err)
		}

		price, _, _, err := s.productRepo.LockStock(tx, tenantID, line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("failed to lock product %d: %w", line.ProductID, err)
		}

		// Availability is checked and the ledger row written under the lock
		// taken above.
		if _, err := s.stockSvc.Adjust(tx, tenantID, actorID, line.ProductID, -line.Quantity, StockReasonSale); err != nil {
			return nil, err
		}

		lineTotal := price.Mul(decimal.NewFromInt(line.Quantity))
		subtotal = subtotal.Add(lineTotal)

		itemsToCreate = append(itemsToCreate, models.SaleItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
		cartLines = append(cartLines, CartLine{
			ProductID: line.ProductID,
			Category:  product.Category,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
	}

	discountAmount := decimal.Zero
	var discountID *int64
	if req.DiscountCode != nil && *req.DiscountCode != "" {
		result, err := s.discountSvc.Validate(tenantID, *req.DiscountCode, subtotal, cartLines, now)
		if err != nil {
			return nil, err
		}
		discountAmount = result.DiscountAmount
		discountID = &result.Discount.ID

		// The counter moves here, once, with the limit re-checked under the
		// update; validation above never mutated it.
		if err := s.discountSvc.RedeemInTx(tx, tenantID, result.Discount.ID); err != nil {
			return nil, err
		}
	}

	totalAmount := subtotal.Sub(discountAmount)
	if totalAmount.IsNegative() {
		totalAmount = decimal.Zero
	}

	sale := &models.Sale{
		TenantID:       tenantID,
		Type:           models.SaleTypeSale,
		TotalAmount:    totalAmount,
		DiscountAmount: discountAmount,
		DiscountID:     discountID,
		ActorID:        actorID,
		ClientID:       req.ClientID,
		SaleTime:       now,
	}
	if _, err := s.saleRepo.CreateSale(tx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale record: %w", err)
	}

	for i := range itemsToCreate {
		itemsToCreate[i].SaleID = sale.ID
		if _, err := s.saleRepo.CreateSaleItem(tx, &itemsToCreate[i]); err != nil {
			return nil, fmt.Errorf("failed to create sale item (product_id: %d): %w", itemsToCreate[i].ProductID, err)
		}
	}
	sale.Items = itemsToCreate

	var giftUsage *models.GiftCardUsage
	if req.GiftCardCode != nil && *req.GiftCardCode != "" {
		giftAmount := totalAmount
		if req.GiftCardAmount != nil {
			giftAmount = *req.GiftCardAmount
		}
		if giftAmount.GreaterThan(totalAmount) {
			return nil, fmt.Errorf("%w: gift card payment exceeds sale total", ErrValidation)
		}
		if giftAmount.IsPositive() {
			usage, err := s.giftCardSvc.Use(tx, tenantID, *req.GiftCardCode, sale.ID, giftAmount, now)
			if err != nil {
				return nil, err
			}
			giftUsage = usage
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale transaction: %w", err)
	}

	total := sale.TotalAmount
	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionSaleCreated,
		EntityType: "sale",
		EntityID:   sale.ID,
		Amount:     &total,
		Details:    fmt.Sprintf("%d items", len(sale.Items)),
		OccurredAt: now,
	})
	if discountID != nil {
		amount := discountAmount
		s.sink.Emit(audit.Entry{
			TenantID:   tenantID,
			ActorID:    actorID,
			Action:     audit.ActionDiscountApplied,
			EntityType: "discount",
			EntityID:   *discountID,
			Amount:     &amount,
			Details:    fmt.Sprintf("sale %d", sale.ID),
			OccurredAt: now,
		})
	}
	if giftUsage != nil {
		amount := giftUsage.Amount
		s.sink.Emit(audit.Entry{
			TenantID:   tenantID,
			ActorID:    actorID,
			Action:     audit.ActionGiftCardUsed,
			EntityType: "gift_card",
			EntityID:   giftUsage.GiftCardID,
			Amount:     &amount,
			Details:    fmt.Sprintf("sale %d", sale.ID),
			OccurredAt: now,
		})
	}
	return sale, nil
}

// CreateReturn reverses a full sale: stock flows back with return ledger
// rows and a RETURN sale row with negated amounts links to the original.
func (s *saleService) CreateReturn(tenantID, actorID, originalSaleID int64) (*models.Sale, error) {
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	original, err := s.saleRepo.GetByID(tenantID, originalSaleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrSaleNotFound, originalSaleID)
		}
		return nil, fmt.Errorf("failed to get sale %d: %w", originalSaleID, err)
	}
	if original.Type == models.SaleTypeReturn {
		return nil, ErrReturnOfReturn
	}

	alreadyReturned, err := s.saleRepo.HasReturnForSale(tx, tenantID, originalSaleID)
	if err != nil {
		return nil, err
	}
	if alreadyReturned {
		return nil, fmt.Errorf("%w: sale ID %d", ErrReturnAlreadyExists, originalSaleID)
	}

	returnSale := &models.Sale{
		TenantID:       tenantID,
		Type:           models.SaleTypeReturn,
		OriginalSaleID: &originalSaleID,
		TotalAmount:    original.TotalAmount.Neg(),
		DiscountAmount: original.DiscountAmount.Neg(),
		DiscountID:     original.DiscountID,
		ActorID:        actorID,
		ClientID:       original.ClientID,
		SaleTime:       now,
	}
	if _, err := s.saleRepo.CreateSale(tx, returnSale); err != nil {
		return nil, fmt.Errorf("failed to create return record: %w", err)
	}

	returnItems := make([]models.SaleItem, 0, len(original.Items))
	for _, item := range original.Items {
		// Stock flows back under the same lock discipline as the sale.
		if _, err := s.stockSvc.Adjust(tx, tenantID, actorID, item.ProductID, item.Quantity, StockReasonReturn); err != nil {
			return nil, err
		}

		returnItem := models.SaleItem{
			SaleID:    returnSale.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal.Neg(),
		}
		if _, err := s.saleRepo.CreateSaleItem(tx, &returnItem); err != nil {
			return nil, fmt.Errorf("failed to create return item (product_id: %d): %w", item.ProductID, err)
		}
		returnItems = append(returnItems, returnItem)
	}
	returnSale.Items = returnItems

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit return transaction: %w", err)
	}

	total := returnSale.TotalAmount
	s.sink.Emit(audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionReturnCreated,
		EntityType: "sale",
		EntityID:   returnSale.ID,
		Amount:     &total,
		Details:    fmt.Sprintf("original sale %d", originalSaleID),
		OccurredAt: now,
	})
	return returnSale, nil
}

func (s *saleService) GetByID(tenantID, id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetByID(tenantID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrSaleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) GetSales(tenantID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	sales, totalCount, err := s.saleRepo.GetSales(tenantID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sales: %w", err)
	}
	return sales, totalCount, nil
}
