package handlers

import (
	"net/http"
	"strconv"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DebtHandler serves the customer debt ledger endpoints.
type DebtHandler struct {
	debtService services.DebtService
}

// NewDebtHandler creates a new instance of DebtHandler.
func NewDebtHandler(ds services.DebtService) *DebtHandler {
	return &DebtHandler{debtService: ds}
}

func (h *DebtHandler) IssueDebt(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}

	var req services.IssueDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	debt, err := h.debtService.Issue(tenantID, userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, debt)
}

func (h *DebtHandler) RepayDebt(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	debtID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.RepayDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	debt, err := h.debtService.Repay(tenantID, userID, debtID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, debt)
}

func (h *DebtHandler) BulkRepay(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}

	var req struct {
		DebtIDs []int64         `json:"debt_ids" binding:"required,min=1"`
		Amount  decimal.Decimal `json:"amount" binding:"required"`
		Method  string          `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	result, err := h.debtService.BulkRepay(tenantID, userID, req.DebtIDs, req.Amount, req.Method)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DebtHandler) GetDebt(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	debt, err := h.debtService.GetByID(tenantID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, debt)
}

func (h *DebtHandler) GetDebts(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	filters := models.DebtFilters{Page: page, PageSize: pageSize}
	if clientIDStr := c.Query("client_id"); clientIDStr != "" {
		clientID, err := strconv.ParseInt(clientIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid client_id query parameter", ""))
			return
		}
		filters.ClientID = &clientID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}

	debts, totalCount, err := h.debtService.GetDebts(tenantID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPaginated(c, debts, totalCount, page, pageSize)
}

func (h *DebtHandler) GetPayments(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	debtID, ok := pathID(c, "id")
	if !ok {
		return
	}

	payments, err := h.debtService.GetPayments(tenantID, debtID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
