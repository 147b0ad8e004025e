package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/kpis-api/internal/application/budgets"
	"github.com/jhoicas/kpis-api/internal/application/invoices"
	"github.com/jhoicas/kpis-api/internal/application/ocr"
	"github.com/jhoicas/kpis-api/internal/application/users"
	"github.com/jhoicas/kpis-api/internal/infrastructure/odoo"
	"github.com/jhoicas/kpis-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/kpis-api/internal/interfaces/http"
	"github.com/jhoicas/kpis-api/pkg/config"
	"github.com/jhoicas/kpis-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Supabase/PostgreSQL")
	}
	defer pool.Close()

	deptRepo := postgres.NewDepartmentRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Cliente JSON-RPC del ERP. La autenticación al arrancar es solo un
	// chequeo temprano: el cliente re-autentica perezosamente si hace falta.
	erp := odoo.NewClient(odoo.Config{
		URL:      cfg.Odoo.URL,
		Database: cfg.Odoo.Database,
		Username: cfg.Odoo.Username,
		APIKey:   cfg.Odoo.APIKey,
		Timeout:  cfg.Odoo.Timeout,
	})
	if err := erp.Authenticate(ctx); err != nil {
		log.Warn().Err(err).Msg("autenticación inicial contra el ERP fallida; se reintentará en la primera operación")
	}

	// Subsistema de refresco OCR: store de notificaciones + orquestador.
	ocrStore := ocr.NewNotificationStore(log)
	orchestrator := ocr.NewRefreshOrchestrator(erp, ocrStore, log, cfg.OCR.BatchTimeout)

	invoiceUC := invoices.NewUseCase(erp, orchestrator, ocrStore, cfg.OCR.AutoRefresh, log)
	budgetUC := budgets.NewUseCase(deptRepo, erp, log)
	userUC := users.NewUseCase(userRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "KPIs API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC: invoiceUC,
		BudgetUC:  budgetUC,
		UserUC:    userUC,
		OCRStore:  ocrStore,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
