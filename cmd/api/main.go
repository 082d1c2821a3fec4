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

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/application/sales"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	domainsales "github.com/jhoicas/inventario-lotes/internal/domain/sales"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/catalog"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-lotes/internal/interfaces/http"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// stores repositorios y TxRunner del driver elegido.
type stores struct {
	txRunner  inventory.TxRunner
	templates repository.TemplateRepository
	lots      repository.LotRepository
	sales     repository.SaleRepository
	movements repository.LotMovementRepository
	// loadTemplates guarda en el almacén las plantillas del catálogo inicial.
	loadTemplates func(ctx context.Context, tpls []*entity.ProductTemplate) error
	close         func()
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
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer st.close()

	if cfg.Store.TemplatesFile != "" {
		tpls, err := catalog.Load(cfg.Store.TemplatesFile, cfg.Store.TemplatesCharset)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Store.TemplatesFile).Msg("cargar catálogo de plantillas")
		}
		if err := st.loadTemplates(ctx, tpls); err != nil {
			log.Fatal().Err(err).Msg("guardar catálogo de plantillas")
		}
		log.Info().Int("templates", len(tpls)).Msg("catálogo de plantillas cargado")
	}

	lotUC := inventory.NewLotUseCase(st.txRunner, st.lots, st.templates, log, cfg.Ledger.MaxRetries)
	ledgerUC := inventory.NewLedgerUseCase(st.txRunner, st.lots, st.movements, log, cfg.Ledger.MaxRetries)
	saleUC := sales.NewSaleUseCase(
		st.txRunner,
		st.sales,
		domainsales.NewNumberGenerator(cfg.Ledger.SaleNumberPrefix),
		log,
		sales.Config{MaxRetries: cfg.Ledger.MaxRetries, NumberAttempts: cfg.Ledger.SaleNumberAttempts},
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); cfg.HTTP.SwaggerFile != "" && err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Inventario de lotes API",
		}))
	} else {
		log.Debug().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LotUC:    lotUC,
		LedgerUC: ledgerUC,
		SaleUC:   saleUC,
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

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		store := memory.NewStore()
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return &stores{
			txRunner:  store,
			templates: store.Templates(),
			lots:      store.Lots(),
			sales:     store.Sales(),
			movements: store.Movements(),
			loadTemplates: func(_ context.Context, tpls []*entity.ProductTemplate) error {
				return store.SeedTemplates(tpls...)
			},
			close: func() {},
		}, nil
	}

	if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	templates := postgres.NewTemplateRepository(pool)
	return &stores{
		txRunner:  postgres.NewTxRunner(pool),
		templates: templates,
		lots:      postgres.NewLotRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		movements: postgres.NewLotMovementRepository(pool),
		loadTemplates: func(ctx context.Context, tpls []*entity.ProductTemplate) error {
			for _, t := range tpls {
				if err := templates.Save(ctx, t); err != nil {
					return err
				}
			}
			return nil
		},
		close: pool.Close,
	}, nil
}
