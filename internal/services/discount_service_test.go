package services

import (
	"testing"
	"time"

	"retail_backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newDiscountFixture(t *testing.T) (DiscountService, *fakeDiscountRepo) {
	repo := newFakeDiscountRepo()
	svc := NewDiscountService(repo, newTestDB(t))
	return svc, repo
}

func TestValidatePercentageDiscount(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	repo.add(models.Discount{
		TenantID: testTenant, Code: "SAVE10", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true,
	})

	result, err := svc.Validate(testTenant, "SAVE10", dec("200.00"), nil, time.Now())
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(result.DiscountAmount), "got %s", result.DiscountAmount)
	assert.True(t, dec("180").Equal(result.FinalAmount), "got %s", result.FinalAmount)
}

func TestValidateFixedDiscountClampedToSubtotal(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	repo.add(models.Discount{
		TenantID: testTenant, Code: "MINUS50", Type: models.DiscountTypeFixed,
		Value: dec("50"), Scope: models.DiscountScopeAll, IsActive: true,
	})

	// Fixed amount larger than the cart never drives the total negative.
	result, err := svc.Validate(testTenant, "MINUS50", dec("30.00"), nil, time.Now())
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(result.DiscountAmount))
	assert.True(t, result.FinalAmount.IsZero())
}

func TestValidateMaxDiscountCapApplies(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	maxCap := dec("15")
	repo.add(models.Discount{
		TenantID: testTenant, Code: "BIG", Type: models.DiscountTypePercentage,
		Value: dec("50"), MaxDiscountAmount: &maxCap,
		Scope: models.DiscountScopeAll, IsActive: true,
	})

	result, err := svc.Validate(testTenant, "BIG", dec("100.00"), nil, time.Now())
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(result.DiscountAmount))
	assert.True(t, dec("85").Equal(result.FinalAmount))
}

func TestValidateRejectsInEligibilityOrder(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	limit := int64(3)
	minPurchase := dec("100")

	repo.add(models.Discount{
		TenantID: testTenant, Code: "INACTIVE", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: false,
	})
	repo.add(models.Discount{
		TenantID: testTenant, Code: "EXPIRED", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true, EndDate: &past,
	})
	repo.add(models.Discount{
		TenantID: testTenant, Code: "EXHAUSTED", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true,
		UsageLimit: &limit, UsageCount: 3,
	})
	repo.add(models.Discount{
		TenantID: testTenant, Code: "MIN100", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true,
		MinPurchaseAmount: &minPurchase,
	})

	for _, code := range []string{"INACTIVE", "EXPIRED", "EXHAUSTED", "MIN100"} {
		_, err := svc.Validate(testTenant, code, dec("50.00"), nil, now)
		assert.ErrorIs(t, err, ErrDiscountNotApplicable, "code %s", code)
	}

	_, err := svc.Validate(testTenant, "MISSING", dec("50.00"), nil, now)
	assert.ErrorIs(t, err, ErrDiscountNotFound)
}

func TestValidateProductScopeUsesEligibleLinesOnly(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	repo.add(models.Discount{
		TenantID: testTenant, Code: "PROD", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeProducts,
		ProductIDs: []int64{1}, IsActive: true,
	})

	lines := []CartLine{
		{ProductID: 1, Quantity: 1, LineTotal: dec("40.00")},
		{ProductID: 2, Quantity: 1, LineTotal: dec("60.00")},
	}
	result, err := svc.Validate(testTenant, "PROD", dec("100.00"), lines, time.Now())
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(result.DiscountAmount), "got %s", result.DiscountAmount)

	// No eligible product in the cart fails validation.
	_, err = svc.Validate(testTenant, "PROD", dec("60.00"), lines[1:], time.Now())
	assert.ErrorIs(t, err, ErrDiscountNotApplicable)
}

func TestValidateCategoryScope(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	repo.add(models.Discount{
		TenantID: testTenant, Code: "CAT", Type: models.DiscountTypeFixed,
		Value: dec("5"), Scope: models.DiscountScopeCategories,
		Categories: []string{"coffee"}, IsActive: true,
	})

	coffee := "coffee"
	tea := "tea"
	lines := []CartLine{
		{ProductID: 1, Category: &coffee, Quantity: 1, LineTotal: dec("3.00")},
		{ProductID: 2, Category: &tea, Quantity: 1, LineTotal: dec("50.00")},
	}
	// Fixed value clamps to the eligible portion, not the whole cart.
	result, err := svc.Validate(testTenant, "CAT", dec("53.00"), lines, time.Now())
	require.NoError(t, err)
	assert.True(t, dec("3").Equal(result.DiscountAmount), "got %s", result.DiscountAmount)
}

func TestValidateNeverMutatesUsageCount(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	d := repo.add(models.Discount{
		TenantID: testTenant, Code: "SAVE10", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true,
	})

	for i := 0; i < 5; i++ {
		_, err := svc.Validate(testTenant, "SAVE10", dec("100.00"), nil, time.Now())
		require.NoError(t, err)
	}

	stored, err := repo.GetByID(testTenant, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.UsageCount)
}

func TestRedeemInTxGuardsUsageLimit(t *testing.T) {
	svc, repo := newDiscountFixture(t)
	limit := int64(1)
	d := repo.add(models.Discount{
		TenantID: testTenant, Code: "ONCE", Type: models.DiscountTypePercentage,
		Value: dec("10"), Scope: models.DiscountScopeAll, IsActive: true, UsageLimit: &limit,
	})

	require.NoError(t, svc.RedeemInTx(nil, testTenant, d.ID))
	err := svc.RedeemInTx(nil, testTenant, d.ID)
	assert.ErrorIs(t, err, ErrDiscountNotApplicable)

	stored, err := repo.GetByID(testTenant, d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsageCount)
}

func TestCreateDiscountValidation(t *testing.T) {
	svc, _ := newDiscountFixture(t)

	_, err := svc.Create(testTenant, CreateDiscountRequest{Code: "", Type: models.DiscountTypeFixed})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(testTenant, CreateDiscountRequest{Code: "X", Type: "mystery"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(testTenant, CreateDiscountRequest{
		Code: "X", Type: models.DiscountTypePercentage, Value: dec("150"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(testTenant, CreateDiscountRequest{
		Code: "X", Type: models.DiscountTypeFixed, Value: dec("5"),
		Scope: models.DiscountScopeProducts,
	})
	assert.ErrorIs(t, err, ErrValidation)

	discount, err := svc.Create(testTenant, CreateDiscountRequest{
		Code: " OK10 ", Type: models.DiscountTypePercentage, Value: dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "OK10", discount.Code)
	assert.Equal(t, models.DiscountScopeAll, discount.Scope)
	assert.True(t, discount.IsActive)
}
