package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/events"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/mongodb"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

// storage almacenamiento seleccionado por STORE_DRIVER.
type storage struct {
	txRunner inventory.TxRunner
	levels   repository.InventoryLevelRepository
	ledger   repository.InventoryTransactionRepository
	health   func(ctx context.Context) error
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
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Driver).Msg("abrir almacenamiento")
	}
	defer store.close()

	// Señales de reorden: siempre al log; a Kafka si hay brokers. La entrega es asíncrona.
	var sink inventory.ReorderNotifier = events.NewLogNotifier(log)
	var kafkaNotifier *events.KafkaNotifier
	if cfg.Kafka.Enabled() {
		kafkaNotifier, err = events.NewKafkaNotifier(cfg.Kafka, log)
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("conexión a Kafka")
		}
		sink = events.MultiNotifier{sink, kafkaNotifier}
	}
	notifier := events.NewAsyncNotifier(sink, cfg.Inventory.NotifyBuffer, log)

	observer := metrics.NewObserver()
	engine := inventory.NewEngine(store.txRunner, notifier, observer, inventory.EngineConfig{
		LockTimeout:  cfg.Inventory.LockTimeout,
		MaxRetries:   cfg.Inventory.MaxRetries,
		RetryBackoff: cfg.Inventory.RetryBackoff,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.health(c.UserContext()); err != nil {
			log.Warn().Err(err).Msg("health check")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:         engine,
		Reporting:      inventory.NewReportingUseCase(store.levels, store.ledger, cfg.Inventory.HistoryMaxLimit),
		Fulfillment:    inventory.NewFulfillmentChecker(store.levels),
		Audit:          inventory.NewAuditUseCase(store.levels, store.ledger),
		Replenishment:  inventory.NewReplenishmentUseCase(store.levels),
		MetricsHandler: observer.Handler(),
		Logger:         log,
		JWTSecret:      cfg.JWT.Secret,
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
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("señales de reorden pendientes sin entregar")
	}
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar productor kafka")
		}
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := mongodb.NewClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		return &storage{
			txRunner: mongodb.NewTxRunner(client),
			levels:   client.Levels(),
			ledger:   client.Transactions(),
			health:   client.HealthCheck,
			close: func() {
				if err := client.Close(context.Background()); err != nil {
					log.Error().Err(err).Msg("cerrar MongoDB")
				}
			},
		}, nil

	case config.StoreDriverMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &storage{
			txRunner: s,
			levels:   s.Levels(),
			ledger:   s.Transactions(),
			health:   func(context.Context) error { return nil },
			close:    func() {},
		}, nil

	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &storage{
			txRunner: postgres.NewTxRunner(pool),
			levels:   postgres.NewInventoryLevelRepository(pool),
			ledger:   postgres.NewInventoryTransactionRepository(pool),
			health:   pool.Ping,
			close:    pool.Close,
		}, nil
	}
}
