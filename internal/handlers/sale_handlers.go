package handlers

import (
	"net/http"
	"strconv"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler serves the sale and return endpoints.
type SaleHandler struct {
	saleService services.SaleService
}

// NewSaleHandler creates a new instance of SaleHandler.
func NewSaleHandler(ss services.SaleService) *SaleHandler {
	return &SaleHandler{saleService: ss}
}

func (h *SaleHandler) CreateSale(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	sale, err := h.saleService.CreateSale(tenantID, userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *SaleHandler) CreateReturn(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	originalSaleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	returnSale, err := h.saleService.CreateReturn(tenantID, userID, originalSaleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, returnSale)
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(tenantID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) GetSales(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	filters := models.SaleFilters{Page: page, PageSize: pageSize}
	if saleType := c.Query("type"); saleType != "" {
		filters.Type = &saleType
	}
	if clientIDStr := c.Query("client_id"); clientIDStr != "" {
		clientID, err := strconv.ParseInt(clientIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid client_id query parameter", ""))
			return
		}
		filters.ClientID = &clientID
	}
	if actorIDStr := c.Query("actor_id"); actorIDStr != "" {
		actorID, err := strconv.ParseInt(actorIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid actor_id query parameter", ""))
			return
		}
		filters.ActorID = &actorID
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}

	sales, totalCount, err := h.saleService.GetSales(tenantID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPaginated(c, sales, totalCount, page, pageSize)
}
