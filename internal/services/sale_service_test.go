package services

import (
	"testing"
	"time"

	"retail_backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc          SaleService
	productRepo  *fakeProductRepo
	stockRepo    *fakeStockRepo
	saleRepo     *fakeSaleRepo
	discountRepo *fakeDiscountRepo
	giftCardRepo *fakeGiftCardRepo
	sink         *recordingSink
}

func newSaleFixture(t *testing.T) *saleFixture {
	f := &saleFixture{
		productRepo:  newFakeProductRepo(),
		stockRepo:    newFakeStockRepo(),
		saleRepo:     newFakeSaleRepo(),
		discountRepo: newFakeDiscountRepo(),
		giftCardRepo: newFakeGiftCardRepo(),
		sink:         &recordingSink{},
	}
	db := newRollbackDB(t, f.productRepo, f.stockRepo, f.saleRepo, f.discountRepo, f.giftCardRepo)
	stockSvc := NewStockService(f.productRepo, f.stockRepo, db, f.sink)
	discountSvc := NewDiscountService(f.discountRepo, db)
	giftCardSvc := NewGiftCardService(f.giftCardRepo, db, f.sink)
	f.svc = NewSaleService(f.saleRepo, f.productRepo, stockSvc, discountSvc, giftCardSvc, db, f.sink)
	return f
}

func TestCreateSaleDecrementsStockAndSnapshotsPrices(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})
	grinder := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-2", Name: "Grinder", Price: dec("30.00"), StockQty: 3})

	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{
			{ProductID: beans.ID, Quantity: 4},
			{ProductID: grinder.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SaleTypeSale, sale.Type)
	assert.True(t, dec("48").Equal(sale.TotalAmount), "got %s", sale.TotalAmount)
	require.Len(t, sale.Items, 2)
	assert.True(t, dec("4.50").Equal(sale.Items[0].UnitPrice))
	assert.True(t, dec("18").Equal(sale.Items[0].LineTotal))

	stored, err := f.productRepo.GetByID(testTenant, beans.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(16), stored.StockQty)

	// One negative ledger row per line.
	require.Len(t, f.stockRepo.transactions, 2)
	assert.Equal(t, int64(-4), f.stockRepo.transactions[0].Delta)
	assert.Equal(t, StockReasonSale, f.stockRepo.transactions[0].Reason)
	assert.Contains(t, f.sink.actions(), "sale.created")
}

func TestCreateSaleInsufficientStockAbortsEverything(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})
	grinder := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-2", Name: "Grinder", Price: dec("30.00"), StockQty: 1})

	_, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{
			{ProductID: beans.ID, Quantity: 4},
			{ProductID: grinder.ID, Quantity: 2},
		},
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, grinder.ID, stockErr.ProductID)

	// All-or-nothing: the first line's decrement rolled back with the rest,
	// stock is untouched and the ledger stayed empty.
	storedBeans, err := f.productRepo.GetByID(testTenant, beans.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), storedBeans.StockQty)
	storedGrinder, err := f.productRepo.GetByID(testTenant, grinder.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), storedGrinder.StockQty)
	assert.Empty(t, f.stockRepo.transactions)
	assert.Empty(t, f.saleRepo.sales)
	assert.NotContains(t, f.sink.actions(), "sale.created")
}

func TestCreateSaleAppliesDiscountOnce(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("10.00"), StockQty: 50})
	discount := f.discountRepo.add(models.Discount{
		TenantID: testTenant, Code: "SAVE10", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true,
	})

	code := "SAVE10"
	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items:        []SaleLineRequest{{ProductID: beans.ID, Quantity: 10}},
		DiscountCode: &code,
	})
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(sale.DiscountAmount))
	assert.True(t, dec("90").Equal(sale.TotalAmount))
	require.NotNil(t, sale.DiscountID)
	assert.Equal(t, discount.ID, *sale.DiscountID)

	stored, err := f.discountRepo.GetByID(testTenant, discount.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsageCount)
	assert.Contains(t, f.sink.actions(), "discount.applied")
}

func TestCreateSaleRejectsExhaustedDiscount(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("10.00"), StockQty: 50})
	limit := int64(1)
	f.discountRepo.add(models.Discount{
		TenantID: testTenant, Code: "ONCE", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true,
		UsageLimit: &limit, UsageCount: 1,
	})

	code := "ONCE"
	_, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items:        []SaleLineRequest{{ProductID: beans.ID, Quantity: 1}},
		DiscountCode: &code,
	})
	assert.ErrorIs(t, err, ErrDiscountNotApplicable)
	assert.Empty(t, f.saleRepo.sales)
}

func TestCreateSaleDrawsGiftCardTiedToSale(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("10.00"), StockQty: 50})
	card := &models.GiftCard{TenantID: testTenant, Code: "CARD-1", Amount: dec("100.00"), Status: models.GiftCardStatusActive}
	_, err := f.giftCardRepo.Create(nil, card)
	require.NoError(t, err)

	code := "CARD-1"
	giftAmount := dec("25.00")
	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items:          []SaleLineRequest{{ProductID: beans.ID, Quantity: 3}},
		GiftCardCode:   &code,
		GiftCardAmount: &giftAmount,
	})
	require.NoError(t, err)

	stored, err := f.giftCardRepo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, dec("75").Equal(stored.RemainingAmount))

	usages, err := f.giftCardRepo.GetUsages(testTenant, card.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.Equal(t, sale.ID, usages[0].SaleID)
	assert.True(t, dec("25").Equal(usages[0].Amount))
	assert.Contains(t, f.sink.actions(), "gift_card.used")
}

func TestCreateSaleGiftCardCannotExceedTotal(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("10.00"), StockQty: 50})
	card := &models.GiftCard{TenantID: testTenant, Code: "CARD-1", Amount: dec("100.00"), Status: models.GiftCardStatusActive}
	_, err := f.giftCardRepo.Create(nil, card)
	require.NoError(t, err)

	code := "CARD-1"
	giftAmount := dec("31.00")
	_, err = f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items:          []SaleLineRequest{{ProductID: beans.ID, Quantity: 3}},
		GiftCardCode:   &code,
		GiftCardAmount: &giftAmount,
	})
	assert.ErrorIs(t, err, ErrValidation)

	// The aborted transaction left the card, the stock and the sale log
	// untouched.
	stored, err := f.giftCardRepo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(stored.RemainingAmount))
	storedBeans, err := f.productRepo.GetByID(testTenant, beans.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), storedBeans.StockQty)
	assert.Empty(t, f.saleRepo.sales)
}

func TestCreateSaleValidatesItems(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{{ProductID: 1, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{{ProductID: 99, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateReturnRestoresStockAndNegatesTotals(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})

	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{{ProductID: beans.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	ret, err := f.svc.CreateReturn(testTenant, testActor, sale.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SaleTypeReturn, ret.Type)
	require.NotNil(t, ret.OriginalSaleID)
	assert.Equal(t, sale.ID, *ret.OriginalSaleID)
	assert.True(t, sale.TotalAmount.Neg().Equal(ret.TotalAmount))
	require.Len(t, ret.Items, 1)
	assert.True(t, sale.Items[0].LineTotal.Neg().Equal(ret.Items[0].LineTotal))

	// Stock is back where it started, with a matching ledger trail.
	stored, err := f.productRepo.GetByID(testTenant, beans.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stored.StockQty)

	var ledgerSum int64
	for _, tx := range f.stockRepo.transactions {
		ledgerSum += tx.Delta
	}
	assert.Equal(t, int64(0), ledgerSum)
	assert.Contains(t, f.sink.actions(), "sale.returned")
}

func TestCreateReturnRejectsReturnOfReturn(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})

	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{{ProductID: beans.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	ret, err := f.svc.CreateReturn(testTenant, testActor, sale.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateReturn(testTenant, testActor, ret.ID)
	assert.ErrorIs(t, err, ErrReturnOfReturn)
}

func TestCreateReturnRejectsSecondReturn(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})

	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{{ProductID: beans.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.svc.CreateReturn(testTenant, testActor, sale.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateReturn(testTenant, testActor, sale.ID)
	assert.ErrorIs(t, err, ErrReturnAlreadyExists)

	// Stock was not inflated a second time.
	stored, err := f.productRepo.GetByID(testTenant, beans.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stored.StockQty)
}

func TestCreateReturnUnknownSale(t *testing.T) {
	f := newSaleFixture(t)
	_, err := f.svc.CreateReturn(testTenant, testActor, 404)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestSalesAreTenantScoped(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})

	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		Items: []SaleLineRequest{{ProductID: beans.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.GetByID(testOtherTenant, sale.ID)
	assert.ErrorIs(t, err, ErrSaleNotFound)

	_, err = f.svc.CreateReturn(testOtherTenant, testActor, sale.ID)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestCreateSaleRecordsClientAndSaleTime(t *testing.T) {
	f := newSaleFixture(t)
	beans := f.productRepo.add(models.Product{TenantID: testTenant, SKU: "SKU-1", Name: "Beans", Price: dec("4.50"), StockQty: 20})

	clientID := int64(7)
	before := time.Now()
	sale, err := f.svc.CreateSale(testTenant, testActor, CreateSaleRequest{
		ClientID: &clientID,
		Items:    []SaleLineRequest{{ProductID: beans.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NotNil(t, sale.ClientID)
	assert.Equal(t, clientID, *sale.ClientID)
	assert.Equal(t, testActor, sale.ActorID)
	assert.False(t, sale.SaleTime.Before(before))
}
