package handlers

import (
	"net/http"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientHandler serves the customer directory endpoints.
type ClientHandler struct {
	clientService services.ClientService
}

// NewClientHandler creates a new instance of ClientHandler.
func NewClientHandler(cs services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: cs}
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	client, err := h.clientService.Create(tenantID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(tenantID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) GetClients(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	filters := models.ClientFilters{Page: page, PageSize: pageSize}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	if hasDebtStr := c.Query("has_debt"); hasDebtStr != "" {
		hasDebt := hasDebtStr == "true"
		filters.HasDebt = &hasDebt
	}

	clients, totalCount, err := h.clientService.GetClients(tenantID, filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respondPaginated(c, clients, totalCount, page, pageSize)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid request payload", err.Error()))
		return
	}

	client, err := h.clientService.Update(tenantID, id, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.clientService.Delete(tenantID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
