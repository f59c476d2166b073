// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caseledger-backend/internal/config"
	"github.com/your-org/caseledger-backend/internal/domain/allocation"
	"github.com/your-org/caseledger-backend/internal/domain/audit"
	"github.com/your-org/caseledger-backend/internal/domain/ledger"
	"github.com/your-org/caseledger-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/caseledger-backend/internal/infrastructure/database/redis"
	"github.com/your-org/caseledger-backend/internal/interfaces/http/handlers"
	"github.com/your-org/caseledger-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// SetupRoutes wires repositories, services and handlers onto the router
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	ledgerRepo := postgres.NewLedgerRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	ledgerService := ledger.NewService(ledgerRepo, cfg, logger)
	allocationService := allocation.NewService(orderRepo, cfg, logger)
	auditService := audit.NewService(orderRepo, ledgerRepo, cfg, logger)
	pdfService := pdf.NewService(cfg)

	SetupCaseInventoryRoutes(rg, ledgerService, redisClient, cfg)
	SetupOrderRoutes(rg, allocationService, cfg)
	SetupAuditRoutes(rg, auditService, pdfService, cfg)
}

// SetupCaseInventoryRoutes sets up case ledger routes
func SetupCaseInventoryRoutes(rg *gin.RouterGroup, svc *ledger.Service, redisClient *redis.Client, cfg *config.Config) {
	handler := handlers.NewCaseInventoryHandler(svc, redisClient, cfg)

	inventory := rg.Group("/case-inventory")
	{
		inventory.GET("", handler.ListItems)
		inventory.GET("/:itemCode", handler.GetItem)
		inventory.POST("/:itemCode/lots", handler.AddLots)
		inventory.POST("/:itemCode/use", handler.Use)
		inventory.GET("/:itemCode/rotation-report", handler.RotationReport)
		inventory.PUT("/:itemCode/physical-count", handler.PhysicalCount)
		inventory.GET("/:itemCode/count-history", handler.CountHistory)
	}
}

// SetupOrderRoutes sets up order recording and fulfillment routes
func SetupOrderRoutes(rg *gin.RouterGroup, svc *allocation.Service, cfg *config.Config) {
	handler := handlers.NewOrderHandler(svc, cfg)

	orders := rg.Group("/orders")
	{
		orders.GET("", handler.ListOrders)
		orders.POST("", handler.CreateOrder)
		orders.POST("/fulfill", handler.Fulfill)
		orders.GET("/:orderId", handler.GetOrder)
	}
}

// SetupAuditRoutes sets up discrepancy audit routes
func SetupAuditRoutes(rg *gin.RouterGroup, svc *audit.Service, pdfSvc *pdf.Service, cfg *config.Config) {
	handler := handlers.NewAuditHandler(svc, pdfSvc, cfg)

	auditGroup := rg.Group("/audit")
	{
		auditGroup.GET("/discrepancy", handler.GetDiscrepancyReport)
		auditGroup.GET("/discrepancy/pdf", handler.GetDiscrepancyReportPDF)
	}
}
