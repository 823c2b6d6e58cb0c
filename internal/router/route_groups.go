package router

import (
	"retail_backoffice/internal/handlers"
	"retail_backoffice/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Roles with write access to catalog and ledger administration.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

func registerAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}
}

func registerProductRoutes(rg *gin.RouterGroup, ph *handlers.ProductHandler, sh *handlers.StockHandler) {
	products := rg.Group("/products")
	{
		products.POST("", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), ph.CreateProduct)
		products.GET("", ph.GetProducts)
		products.GET("/:id", ph.GetProduct)
		products.PUT("/:id", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), ph.UpdateProduct)
		products.DELETE("/:id", middleware.RoleAuthMiddleware(RoleAdmin), ph.DeleteProduct)

		products.GET("/:id/stock", sh.GetCurrentStock)
		products.POST("/:id/stock/receive", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), sh.ReceiveStock)
		products.POST("/:id/stock/write-off", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), sh.WriteOffStock)
		products.POST("/:id/stock/inventory", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), sh.SetInventoryCount)
		products.GET("/:id/stock/reconcile", sh.Reconcile)
	}

	stock := rg.Group("/stock")
	{
		stock.GET("/history", sh.GetHistory)
	}
}

func registerSaleRoutes(rg *gin.RouterGroup, h *handlers.SaleHandler) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.CreateSale)
		sales.GET("", h.GetSales)
		sales.GET("/:id", h.GetSale)
		sales.POST("/:id/return", h.CreateReturn)
	}
}

func registerClientRoutes(rg *gin.RouterGroup, h *handlers.ClientHandler) {
	clients := rg.Group("/clients")
	{
		clients.POST("", h.CreateClient)
		clients.GET("", h.GetClients)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.DeleteClient)
	}
}

func registerDebtRoutes(rg *gin.RouterGroup, h *handlers.DebtHandler) {
	debts := rg.Group("/debts")
	{
		debts.POST("", h.IssueDebt)
		debts.GET("", h.GetDebts)
		debts.GET("/:id", h.GetDebt)
		debts.POST("/:id/payments", h.RepayDebt)
		debts.GET("/:id/payments", h.GetPayments)
		debts.POST("/bulk-repay", h.BulkRepay)
	}
}

func registerGiftCardRoutes(rg *gin.RouterGroup, h *handlers.GiftCardHandler) {
	giftCards := rg.Group("/gift-cards")
	{
		giftCards.POST("", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.IssueGiftCard)
		giftCards.GET("", h.GetGiftCards)
		giftCards.GET("/validate", h.ValidateGiftCard)
		giftCards.GET("/:id", h.GetGiftCard)
		giftCards.GET("/:id/usages", h.GetUsages)
		giftCards.POST("/:id/refund", h.RefundGiftCard)
		giftCards.POST("/:id/cancel", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.CancelGiftCard)
	}
}

func registerDiscountRoutes(rg *gin.RouterGroup, h *handlers.DiscountHandler) {
	discounts := rg.Group("/discounts")
	{
		discounts.POST("", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.CreateDiscount)
		discounts.GET("", h.GetDiscounts)
		discounts.POST("/validate", h.ValidateDiscount)
		discounts.GET("/:id", h.GetDiscount)
		discounts.PUT("/:id", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.UpdateDiscount)
		discounts.DELETE("/:id", middleware.RoleAuthMiddleware(RoleAdmin), h.DeleteDiscount)
	}
}

func registerSupplierRoutes(rg *gin.RouterGroup, h *handlers.SupplierHandler) {
	suppliers := rg.Group("/suppliers")
	{
		suppliers.POST("", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.CreateSupplier)
		suppliers.GET("", h.GetSuppliers)
		suppliers.GET("/:id", h.GetSupplier)
		suppliers.PUT("/:id", middleware.RoleAuthMiddleware(RoleAdmin, RoleManager), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RoleAuthMiddleware(RoleAdmin), h.DeleteSupplier)
	}
}
