package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/stock-ledger/internal/application/auth"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/purchase"
	"github.com/tu-usuario/stock-ledger/internal/application/returns"
	"github.com/tu-usuario/stock-ledger/internal/application/sale"
	"github.com/tu-usuario/stock-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC   *ledger.StockLedgerUseCase
	SaleUC     *sale.ProcessSaleUseCase
	ReturnUC   *returns.ReturnUseCase
	PurchaseUC *purchase.PurchaseOrderUseCase
	AuthUC     *auth.AuthUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)

	// Ledger de stock (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.LedgerUC)
	// la vía cruda admite clamp a cero, reservada a admin
	invGroup.Post("/movements", adminOnly, inventoryHandler.ApplyMovement)
	invGroup.Post("/movements/in", inventoryHandler.StockIn)
	invGroup.Post("/movements/out", inventoryHandler.StockOut)
	invGroup.Get("/movements/summary", inventoryHandler.Summary)
	invGroup.Patch("/movements/:id", inventoryHandler.UpdateMeta)
	invGroup.Get("/products/:id/movements", inventoryHandler.ListByProduct)

	// Ventas (protegido)
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC)
	sales.Post("/", saleHandler.Process)
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)

	// Devoluciones (protegido)
	rets := protected.Group("/returns")
	returnHandler := NewReturnHandler(deps.ReturnUC)
	rets.Post("/", returnHandler.Create)
	rets.Get("/", returnHandler.List)
	rets.Get("/:id", returnHandler.GetByID)
	rets.Post("/:id/approve", returnHandler.Approve)
	rets.Post("/:id/reject", returnHandler.Reject)

	// Órdenes de compra (protegido)
	orders := protected.Group("/purchase-orders")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC)
	orders.Post("/", purchaseHandler.Create)
	orders.Get("/", purchaseHandler.List)
	orders.Get("/:id", purchaseHandler.GetByID)
	orders.Post("/:id/approve", purchaseHandler.Approve)
	orders.Post("/:id/reject", purchaseHandler.Reject)
	orders.Put("/:id/status", adminOnly, purchaseHandler.UpdateStatus)
	orders.Get("/:id/pdf", purchaseHandler.DownloadPDF)
}
