package router

import (
	"database/sql"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/handlers"
	"retail_backoffice/internal/middleware"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/internal/services"
	"retail_backoffice/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and registers all routes
// on the given engine.
func Setup(engine *gin.Engine, db *sql.DB, sink audit.Sink) {
	// Repositories
	productRepo := repositories.NewProductRepository(db)
	stockRepo := repositories.NewStockTransactionRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	debtRepo := repositories.NewDebtRepository(db)
	giftCardRepo := repositories.NewGiftCardRepository(db)
	discountRepo := repositories.NewDiscountRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	authRepo := repositories.NewAuthRepository(db)

	// Services
	stockService := services.NewStockService(productRepo, stockRepo, db, sink)
	discountService := services.NewDiscountService(discountRepo, db)
	giftCardService := services.NewGiftCardService(giftCardRepo, db, sink)
	saleService := services.NewSaleService(saleRepo, productRepo, stockService, discountService, giftCardService, db, sink)
	debtService := services.NewDebtService(debtRepo, clientRepo, db, sink)
	productService := services.NewProductService(productRepo, stockService, db)
	clientService := services.NewClientService(clientRepo, db)
	supplierService := services.NewSupplierService(supplierRepo, db)
	authService := services.NewAuthService(authRepo, db)

	// Handlers
	productHandler := handlers.NewProductHandler(productService)
	stockHandler := handlers.NewStockHandler(stockService)
	saleHandler := handlers.NewSaleHandler(saleService)
	clientHandler := handlers.NewClientHandler(clientService)
	debtHandler := handlers.NewDebtHandler(debtService)
	giftCardHandler := handlers.NewGiftCardHandler(giftCardService)
	discountHandler := handlers.NewDiscountHandler(discountService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	authHandler := handlers.NewAuthHandler(authService)

	engine.GET("/metrics", gin.WrapH(metrics.GetPrometheusHandler()))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := engine.Group("/api/v1")
	registerAuthRoutes(apiV1, authHandler)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/auth/me", authHandler.Me)
	registerProductRoutes(protected, productHandler, stockHandler)
	registerSaleRoutes(protected, saleHandler)
	registerClientRoutes(protected, clientHandler)
	registerDebtRoutes(protected, debtHandler)
	registerGiftCardRoutes(protected, giftCardHandler)
	registerDiscountRoutes(protected, discountHandler)
	registerSupplierRoutes(protected, supplierHandler)
}
