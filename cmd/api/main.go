package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/infrastructure/postgres"
	httpRouter "github.com/tallerpro/inventario-api/internal/interfaces/http"
	"github.com/tallerpro/inventario-api/pkg/config"
	"github.com/tallerpro/inventario-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos de lectura sobre el pool; las escrituras pasan por el TxRunner.
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	recorder := inventory.NewMovementRecorder(txRunner, itemRepo, warehouseRepo)
	manager := inventory.NewReservationManager(txRunner, itemRepo, warehouseRepo, recorder)
	receiver := inventory.NewPurchaseReceiver(txRunner, recorder, warehouseRepo)
	workflow := inventory.NewSalesOrderWorkflow(txRunner, recorder)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Recorder:  recorder,
		Manager:   manager,
		Receiver:  receiver,
		Workflow:  workflow,
		Stocks:    stockRepo,
		Movements: movementRepo,
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
