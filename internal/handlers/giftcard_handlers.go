package handlers

import (
	"net/http"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GiftCardHandler serves the gift card ledger endpoints.
type GiftCardHandler struct {
	giftCardService services.GiftCardService
}

// NewGiftCardHandler creates a new instance of GiftCardHandler.
func NewGiftCardHandler(gs services.GiftCardService) *GiftCardHandler {
	return &GiftCardHandler{giftCardService: gs}
}

func (h *GiftCardHandler) IssueGiftCard(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}

	var req services.IssueGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	card, err := h.giftCardService.Issue(tenantID, userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *GiftCardHandler) ValidateGiftCard(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	code := c.Query("code")
	if code == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "code query parameter is required", ""))
		return
	}

	card, err := h.giftCardService.Validate(tenantID, code, time.Now())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) GetGiftCard(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	card, err := h.giftCardService.GetByID(tenantID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) GetGiftCards(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	filters := models.GiftCardFilters{Page: page, PageSize: pageSize}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	cards, totalCount, err := h.giftCardService.GetGiftCards(tenantID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPaginated(c, cards, totalCount, page, pageSize)
}

// refundGiftCardRequest identifies the sale whose redemption is refunded.
type refundGiftCardRequest struct {
	SaleID int64           `json:"sale_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *GiftCardHandler) RefundGiftCard(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req refundGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	card, err := h.giftCardService.Refund(tenantID, userID, cardID, req.SaleID, req.Amount)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) CancelGiftCard(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	card, err := h.giftCardService.Cancel(tenantID, userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) GetUsages(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	usages, err := h.giftCardService.GetUsages(tenantID, cardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, usages)
}
