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

	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/application/replenishment"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
	"github.com/jhoicas/obrador-api/internal/infrastructure/csvimport"
	"github.com/jhoicas/obrador-api/internal/infrastructure/memory"
	"github.com/jhoicas/obrador-api/internal/infrastructure/observability"
	infrapdf "github.com/jhoicas/obrador-api/internal/infrastructure/pdf"
	"github.com/jhoicas/obrador-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/obrador-api/internal/interfaces/http"
	"github.com/jhoicas/obrador-api/pkg/config"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

// storage lo que el resto del arranque necesita del almacenamiento elegido.
type storage struct {
	txRunner interface {
		inventory.TxRunner
		replenishment.TxRunner
	}
	ledgers  repository.InventoryLedgerRepository
	requests repository.StockRequestRepository
	products repository.ProductRepository
	close    func()
}

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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tp, shutdownTracing, err := observability.SetupTracing(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer st.close()

	publisher, closePublishers := buildPublishers(ctx, cfg, log, tp)
	defer closePublishers()

	retries := cfg.Workflow.ConflictRetries
	reservation := replenishment.NewReservationCoordinator(st.txRunner, log)
	fulfillment := replenishment.NewFulfillmentCoordinator(st.txRunner, log)
	workflow := replenishment.NewRequestWorkflow(
		st.txRunner, st.requests, st.products,
		reservation, fulfillment, publisher, log, retries,
	)
	deliveryNoteUC := replenishment.NewDeliveryNoteUseCase(workflow, infrapdf.NewDeliveryNoteGenerator(cfg.App.Name))
	ledgerUC := inventory.NewLedgerUseCase(st.txRunner, st.ledgers, st.products, log, retries)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Obrador API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Workflow:     workflow,
		DeliveryNote: deliveryNoteUC,
		Ledger:       ledgerUC,
		JWTSecret:    cfg.JWT.Secret,
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		store := memory.NewStore()
		if cfg.Catalog.File != "" {
			if err := loadCatalog(store, cfg.Catalog); err != nil {
				return nil, err
			}
		}
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &storage{
			txRunner: store,
			ledgers:  store.Ledgers(),
			requests: store.Requests(),
			products: store.Products(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema verificado")
	}
	return &storage{
		txRunner: postgres.NewTxRunner(pool),
		ledgers:  postgres.NewInventoryLedgerRepository(pool),
		requests: postgres.NewStockRequestRepository(pool),
		products: postgres.NewProductRepository(pool),
		close:    pool.Close,
	}, nil
}

func loadCatalog(store *memory.Store, cat config.CatalogConfig) error {
	f, err := os.Open(cat.File)
	if err != nil {
		return err
	}
	defer f.Close()
	products, err := csvimport.ReadProducts(f, cat.Encoding)
	if err != nil {
		return err
	}
	for _, p := range products {
		store.AddProduct(p)
	}
	return nil
}
