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

// DiscountHandler serves the discount engine endpoints.
type DiscountHandler struct {
	discountService services.DiscountService
}

// NewDiscountHandler creates a new instance of DiscountHandler.
func NewDiscountHandler(ds services.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: ds}
}

func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	discount, err := h.discountService.Create(tenantID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, discount)
}

// validateDiscountRequest describes the cart being priced.
type validateDiscountRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" binding:"required"`
	Lines    []struct {
		ProductID int64           `json:"product_id"`
		Category  *string         `json:"category"`
		Quantity  int64           `json:"quantity"`
		LineTotal decimal.Decimal `json:"line_total"`
	} `json:"lines"`
}

// ValidateDiscount prices a cart against a code without consuming a
// redemption. The usage counter only moves when a sale finalizes.
func (h *DiscountHandler) ValidateDiscount(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	var req validateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	lines := make([]services.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, services.CartLine{
			ProductID: l.ProductID,
			Category:  l.Category,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}

	result, err := h.discountService.Validate(tenantID, req.Code, req.Subtotal, lines, time.Now())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DiscountHandler) GetDiscount(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	discount, err := h.discountService.GetByID(tenantID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *DiscountHandler) GetDiscounts(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	filters := models.DiscountFilters{Page: page, PageSize: pageSize}
	if activeStr := c.Query("is_active"); activeStr != "" {
		isActive := activeStr == "true"
		filters.IsActive = &isActive
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	discounts, totalCount, err := h.discountService.GetDiscounts(tenantID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPaginated(c, discounts, totalCount, page, pageSize)
}

func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	discount, err := h.discountService.Update(tenantID, id, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.discountService.Delete(tenantID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
