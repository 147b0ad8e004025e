package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpis-api/internal/application/budgets"
	"github.com/jhoicas/kpis-api/internal/application/invoices"
	"github.com/jhoicas/kpis-api/internal/application/ocr"
	"github.com/jhoicas/kpis-api/internal/application/users"
	"github.com/jhoicas/kpis-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC *invoices.UseCase
	BudgetUC  *budgets.UseCase
	UserUC    *users.UseCase
	OCRStore  *ocr.NotificationStore
	JWTSecret string
}

// Router registra las rutas de la API. Todo va detrás del JWT del dashboard;
// la aprobación exige además rol approver o admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Perfil del usuario autenticado
	userHandler := NewUserHandler(deps.UserUC)
	api.Get("/me", userHandler.Me)

	// Facturas de proveedor (proxy del ERP)
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invs := api.Group("/invoices")
	invs.Get("/", invoiceHandler.List)
	invs.Get("/:id", invoiceHandler.GetByID)
	invs.Post("/:id/refresh-ocr", invoiceHandler.RefreshOCR)
	invs.Post("/:id/approve",
		RequireRole(entity.RoleApprover, entity.RoleAdmin),
		invoiceHandler.Approve)

	// Estado del refresco OCR (polling de los clientes)
	statusHandler := NewOCRStatusHandler(deps.OCRStore)
	api.Get("/ocr/refresh-status", statusHandler.Status)

	// Presupuestos por departamento
	budgetHandler := NewBudgetHandler(deps.BudgetUC)
	api.Get("/budgets", budgetHandler.Overview)
}
