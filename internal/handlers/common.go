package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"retail_backoffice/internal/middleware"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// identity pulls the authenticated tenant and user out of the gin context.
// A missing identity means the auth middleware did not run; that is a server
// misconfiguration, not a client error.
func identity(c *gin.Context) (tenantID, userID int64, ok bool) {
	tenantID, tenantOK := middleware.TenantID(c)
	userID, userOK := middleware.UserID(c)
	if !tenantOK || !userOK {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Authentication context missing", ""))
		return 0, 0, false
	}
	return tenantID, userID, true
}

// pathID parses the named path parameter as a positive int64.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" path parameter", ""))
		return 0, false
	}
	return id, true
}

// pagination reads page/page_size query parameters with sane bounds.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// respondPaginated wraps a list payload with its paging envelope.
func respondPaginated(c *gin.Context, data interface{}, totalCount, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"data":        data,
		"total_count": totalCount,
		"page":        page,
		"page_size":   pageSize,
	})
}

// handleServiceError translates service-layer errors into API responses.
// Typed ledger errors carry their own HTTP status; anything unrecognized is
// logged and hidden behind a 500.
func handleServiceError(c *gin.Context, err error) {
	var stockErr *services.InsufficientStockError
	var balanceErr *services.InsufficientBalanceError
	var excessErr *services.ExcessPaymentError

	switch {
	case errors.As(err, &stockErr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock", stockErr.Error()))
	case errors.As(err, &balanceErr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientBalance, "Insufficient gift card balance", balanceErr.Error()))
	case errors.As(err, &excessErr):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeExcessPayment, "Payment exceeds remaining debt", excessErr.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed", err.Error()))
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrClientNotFound),
		errors.Is(err, services.ErrSaleNotFound),
		errors.Is(err, services.ErrDebtNotFound),
		errors.Is(err, services.ErrGiftCardNotFound),
		errors.Is(err, services.ErrDiscountNotFound),
		errors.Is(err, services.ErrSupplierNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, repositories.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found", err.Error()))
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrReturnOfReturn),
		errors.Is(err, services.ErrReturnAlreadyExists),
		errors.Is(err, services.ErrRefundExceedsUsage):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Operation not allowed in current state", err.Error()))
	case errors.Is(err, services.ErrDiscountNotApplicable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Discount not applicable", err.Error()))
	case errors.Is(err, repositories.ErrDuplicateKey):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Duplicate value", err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password", ""))
	case errors.Is(err, services.ErrInvalidToken):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", ""))
	default:
		utils.LogError(err, "Unhandled service error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "An unexpected error occurred", ""))
	}
}
