package services

import (
	"testing"
	"time"

	"retail_backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGiftCardFixture(t *testing.T) (GiftCardService, *fakeGiftCardRepo, *recordingSink) {
	repo := newFakeGiftCardRepo()
	sink := &recordingSink{}
	svc := NewGiftCardService(repo, newTestDB(t), sink)
	return svc, repo, sink
}

func TestIssueGiftCardGeneratesCodeAndFullBalance(t *testing.T) {
	svc, _, sink := newGiftCardFixture(t)

	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("100.00")})
	require.NoError(t, err)
	assert.NotEmpty(t, card.Code)
	assert.NotEmpty(t, card.Number)
	assert.Equal(t, models.GiftCardStatusActive, card.Status)
	assert.True(t, card.Amount.Equal(card.RemainingAmount))
	assert.Equal(t, testActor, card.IssuedBy)
	assert.Contains(t, sink.actions(), "gift_card.issued")
}

func TestIssueGiftCardRejectsBadInput(t *testing.T) {
	svc, _, _ := newGiftCardFixture(t)

	_, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("0")})
	assert.ErrorIs(t, err, ErrValidation)

	past := time.Now().Add(-time.Hour)
	_, err = svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("50"), ExpiresAt: &past})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUseDrawsDownBalanceAndRecordsUsage(t *testing.T) {
	svc, repo, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("100.00")})
	require.NoError(t, err)

	usage, err := svc.Use(nil, testTenant, card.Code, 77, dec("40.00"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(77), usage.SaleID)
	assert.True(t, dec("40").Equal(usage.Amount))

	stored, err := repo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(stored.RemainingAmount))
	assert.Equal(t, models.GiftCardStatusActive, stored.Status)
}

func TestUseToZeroMarksCardUsed(t *testing.T) {
	svc, repo, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("30.00")})
	require.NoError(t, err)

	_, err = svc.Use(nil, testTenant, card.Code, 1, dec("30.00"), time.Now())
	require.NoError(t, err)

	stored, err := repo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, stored.RemainingAmount.IsZero())
	assert.Equal(t, models.GiftCardStatusUsed, stored.Status)

	// A used card cannot pay again.
	_, err = svc.Use(nil, testTenant, card.Code, 2, dec("1.00"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUseRejectsOverdraw(t *testing.T) {
	svc, repo, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("20.00")})
	require.NoError(t, err)

	_, err = svc.Use(nil, testTenant, card.Code, 1, dec("25.00"), time.Now())
	var balanceErr *InsufficientBalanceError
	require.ErrorAs(t, err, &balanceErr)
	assert.True(t, dec("20").Equal(balanceErr.Remaining))

	// Balance untouched, no usage row.
	stored, err := repo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(stored.RemainingAmount))
	usages, err := repo.GetUsages(testTenant, card.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)
}

func TestUseRejectsExpiredCard(t *testing.T) {
	svc, _, _ := newGiftCardFixture(t)
	future := time.Now().Add(time.Hour)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("20.00"), ExpiresAt: &future})
	require.NoError(t, err)

	_, err = svc.Use(nil, testTenant, card.Code, 1, dec("5.00"), time.Now().Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRefundRestoresBalanceWithinUsage(t *testing.T) {
	svc, repo, sink := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("100.00")})
	require.NoError(t, err)
	_, err = svc.Use(nil, testTenant, card.Code, 5, dec("100.00"), time.Now())
	require.NoError(t, err)

	refunded, err := svc.Refund(testTenant, testActor, card.ID, 5, dec("100.00"))
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(refunded.RemainingAmount))
	assert.Equal(t, models.GiftCardStatusActive, refunded.Status)

	// The usage row is gone after a full refund.
	usages, err := repo.GetUsages(testTenant, card.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)
	assert.Contains(t, sink.actions(), "gift_card.refunded")
}

func TestPartialRefundShrinksUsage(t *testing.T) {
	svc, repo, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("100.00")})
	require.NoError(t, err)
	_, err = svc.Use(nil, testTenant, card.Code, 5, dec("60.00"), time.Now())
	require.NoError(t, err)

	_, err = svc.Refund(testTenant, testActor, card.ID, 5, dec("25.00"))
	require.NoError(t, err)

	stored, err := repo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, dec("65").Equal(stored.RemainingAmount))

	usages, err := repo.GetUsages(testTenant, card.ID)
	require.NoError(t, err)
	require.Len(t, usages, 1)
	assert.True(t, dec("35").Equal(usages[0].Amount))
}

func TestRefundRejectsMoreThanUsage(t *testing.T) {
	svc, _, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("100.00")})
	require.NoError(t, err)
	_, err = svc.Use(nil, testTenant, card.Code, 5, dec("30.00"), time.Now())
	require.NoError(t, err)

	_, err = svc.Refund(testTenant, testActor, card.ID, 5, dec("31.00"))
	assert.ErrorIs(t, err, ErrRefundExceedsUsage)

	// Refund against a sale with no recorded usage fails too.
	_, err = svc.Refund(testTenant, testActor, card.ID, 99, dec("1.00"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelBlocksFurtherUse(t *testing.T) {
	svc, _, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("50.00")})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(testTenant, testActor, card.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiftCardStatusCancelled, cancelled.Status)

	_, err = svc.Use(nil, testTenant, card.Code, 1, dec("5.00"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Cancel(testTenant, testActor, card.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestValidateGiftCardIsReadOnly(t *testing.T) {
	svc, repo, _ := newGiftCardFixture(t)
	card, err := svc.Issue(testTenant, testActor, IssueGiftCardRequest{Amount: dec("50.00")})
	require.NoError(t, err)

	validated, err := svc.Validate(testTenant, card.Code, time.Now())
	require.NoError(t, err)
	assert.Equal(t, card.ID, validated.ID)

	stored, err := repo.GetByID(testTenant, card.ID)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(stored.RemainingAmount))

	_, err = svc.Validate(testOtherTenant, card.Code, time.Now())
	assert.ErrorIs(t, err, ErrGiftCardNotFound)
}
