package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/auth"
	"github.com/jhoicas/stock-sucursales/internal/application/branches"
	"github.com/jhoicas/stock-sucursales/internal/application/catalog"
	"github.com/jhoicas/stock-sucursales/internal/application/ledger"
	"github.com/jhoicas/stock-sucursales/internal/application/reporting"
	"github.com/jhoicas/stock-sucursales/internal/application/sales"
	"github.com/jhoicas/stock-sucursales/internal/application/views"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CatalogUC   *catalog.CatalogUseCase
	BranchUC    *branches.BranchUseCase
	LedgerUC    *ledger.LedgerUseCase
	SaleUC      *sales.SaleUseCase
	ReportingUC *reporting.ReportingUseCase
	Live        *views.LiveInventory
	// Verifier valida los tokens: AuthUC en modo local o el proveedor Firebase.
	Verifier auth.Verifier
	Now      func() time.Time
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	adminOnly := RequireRole(entity.RoleAdmin)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleBranchManager)

	// Auth (login público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Verifier), anyRole)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/users/branch-managers", adminOnly, authHandler.CreateBranchManager)

	// Catálogo
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC, deps.LedgerUC)
	products.Get("/", productHandler.List)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)
	products.Post("/:id/replenish", adminOnly, productHandler.Replenish)
	products.Get("/:id/availability", productHandler.Availability)

	// Sucursales y su stock
	branchGroup := protected.Group("/branches")
	branchHandler := NewBranchHandler(deps.BranchUC)
	stockHandler := NewStockHandler(deps.LedgerUC)
	saleHandler := NewSaleHandler(deps.SaleUC)
	branchGroup.Get("/", branchHandler.List)
	branchGroup.Post("/", adminOnly, branchHandler.Create)
	branchGroup.Put("/:id", adminOnly, branchHandler.Update)
	branchGroup.Put("/:id/manager", adminOnly, branchHandler.AssignManager)
	branchGroup.Get("/:id/stock", stockHandler.ListByBranch)
	branchGroup.Get("/:id/stock/:productId", stockHandler.GetQuantity)
	branchGroup.Post("/:id/sales", saleHandler.Record)
	branchGroup.Get("/:id/sales", saleHandler.List)

	protected.Post("/stock/transfers", adminOnly, stockHandler.Transfer)

	// Reportes (export antes de :branchId)
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportingUC, deps.Now)
	reports.Get("/low-stock", reportHandler.LowStock)
	reports.Get("/monthly/export", adminOnly, reportHandler.Export)
	reports.Get("/monthly/:branchId", reportHandler.Monthly)
	reports.Post("/monthly/:branchId/close", adminOnly, reportHandler.Close)
	reports.Get("/monthly/:branchId/reconcile", adminOnly, reportHandler.Reconcile)

	// Vista en vivo
	liveHandler := NewLiveHandler(deps.Live)
	protected.Get("/live/inventory", liveHandler.Inventory)
}
