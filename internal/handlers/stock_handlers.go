package handlers

import (
	"net/http"
	"strconv"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockHandler serves the stock ledger endpoints.
type StockHandler struct {
	stockService services.StockService
}

// NewStockHandler creates a new instance of StockHandler.
func NewStockHandler(ss services.StockService) *StockHandler {
	return &StockHandler{stockService: ss}
}

// stockChangeRequest covers receipts and write-offs.
type stockChangeRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

// inventoryCountRequest carries the result of a physical count.
type inventoryCountRequest struct {
	CountedQty int64 `json:"counted_qty" binding:"gte=0"`
}

func (h *StockHandler) ReceiveStock(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	stockTx, err := h.stockService.ReceiveStock(tenantID, userID, productID, req.Quantity)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stockTx)
}

func (h *StockHandler) WriteOffStock(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req stockChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	stockTx, err := h.stockService.WriteOffStock(tenantID, userID, productID, req.Quantity)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stockTx)
}

func (h *StockHandler) SetInventoryCount(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req inventoryCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	stockTx, err := h.stockService.SetInventoryCount(tenantID, userID, productID, req.CountedQty)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if stockTx == nil {
		// Count matched the stored quantity; nothing was written.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, stockTx)
}

func (h *StockHandler) GetCurrentStock(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stockQty, err := h.stockService.GetCurrentStock(tenantID, productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "stock_qty": stockQty})
}

func (h *StockHandler) GetHistory(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	filters := models.StockHistoryFilters{Page: page, PageSize: pageSize}
	if productIDStr := c.Query("product_id"); productIDStr != "" {
		productID, err := strconv.ParseInt(productIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid product_id query parameter", ""))
			return
		}
		filters.ProductID = &productID
	}
	if reason := c.Query("reason"); reason != "" {
		filters.Reason = &reason
	}

	transactions, totalCount, err := h.stockService.GetHistory(tenantID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPaginated(c, transactions, totalCount, page, pageSize)
}

func (h *StockHandler) Reconcile(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stockQty, ledgerSum, err := h.stockService.Reconcile(tenantID, productID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"stock_qty":  stockQty,
		"ledger_sum": ledgerSum,
		"consistent": stockQty == ledgerSum,
	})
}
