package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-sucursales/internal/application/auth"
	"github.com/jhoicas/stock-sucursales/internal/application/branches"
	"github.com/jhoicas/stock-sucursales/internal/application/catalog"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ledger"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/application/reporting"
	"github.com/jhoicas/stock-sucursales/internal/application/sales"
	"github.com/jhoicas/stock-sucursales/internal/application/views"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/firebaseauth"
	infrafirestore "github.com/jhoicas/stock-sucursales/internal/infrastructure/firestore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-sucursales/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/postgres"
	infraxlsx "github.com/jhoicas/stock-sucursales/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/stock-sucursales/internal/interfaces/http"
	"github.com/jhoicas/stock-sucursales/pkg/config"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Str("auth", cfg.Auth.Provider).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, summer, closeBackend := openStore(ctx, cfg, log)
	defer closeBackend()
	defer func() { _ = store.Close() }()

	repos := docstore.NewRepos(store)
	txRunner := docstore.NewTxRunner(store)
	ledgerMetrics := metrics.New()
	bus := identity.NewBus()

	catalogUC := catalog.NewCatalogUseCase(txRunner, repos.Products, ledgerMetrics, log, catalog.Options{
		SerialWidth:       cfg.Ledger.SerialWidth,
		LowStockThreshold: cfg.Ledger.LowStockThreshold,
	})
	branchUC := branches.NewBranchUseCase(txRunner, repos.Branches, log, nil)
	ledgerUC := ledger.NewLedgerUseCase(txRunner, repos.Products, repos.Branches, repos.BranchStock, ledgerMetrics, log,
		ledger.Options{LowStockThreshold: cfg.Ledger.LowStockThreshold})
	saleUC := sales.NewSaleUseCase(txRunner, repos.Sales, ledgerMetrics, log, sales.Options{})
	reportingUC := reporting.NewReportingUseCase(reporting.Deps{
		TxRunner:     txRunner,
		Products:     repos.Products,
		Branches:     repos.Branches,
		BranchStock:  repos.BranchStock,
		Sales:        repos.Sales,
		MonthlySales: repos.MonthlySales,
		Summer:       summer,
	}, []ports.ReportRenderer{
		infraxlsx.NewExcelizeReportRenderer(),
		infrapdf.NewMarotoReportRenderer(),
	}, log, reporting.Options{LowStockThreshold: cfg.Ledger.LowStockThreshold})

	authUC := auth.NewAuthUseCase(txRunner, repos.Users, bus, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	created, err := authUC.SeedAdmin(ctx, auth.BootstrapAdmin{
		Username: cfg.Bootstrap.AdminUsername,
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador inicial")
	}
	if created {
		log.Info().Str("username", cfg.Bootstrap.AdminUsername).Msg("administrador inicial creado")
	}

	var verifier auth.Verifier = authUC
	if cfg.Auth.Provider == config.AuthFirebase {
		fbVerifier, err := firebaseauth.NewVerifier(ctx, cfg.Firestore)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar Firebase Auth")
		}
		verifier = auth.NewFirebaseProvider(fbVerifier, repos.Users, bus, log)
	}

	live := views.NewLiveInventory(docstore.NewFeeds(store), bus, cfg.Ledger.LowStockThreshold, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))
	if cfg.Metrics.Enabled {
		app.Use(httpRouter.RequestMetrics(ledgerMetrics))
		app.Get("/metrics", adaptor.HTTPHandler(ledgerMetrics.Handler()))
	}

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Sucursales API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CatalogUC:   catalogUC,
		BranchUC:    branchUC,
		LedgerUC:    ledgerUC,
		SaleUC:      saleUC,
		ReportingUC: reportingUC,
		Live:        live,
		Verifier:    verifier,
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

// openStore abre el almacén de documentos elegido por STORE_DRIVER. El SalesSummer solo existe
// con PostgreSQL; closeBackend libera lo que el Store no cierra por sí mismo (el pool).
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.DocumentStore, repository.SalesSummer, func()) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migraciones PostgreSQL")
			}
		}
		return postgres.NewStore(pool, log), postgres.NewSalesSummer(pool), pool.Close
	case config.StoreFirestore:
		client, err := infrafirestore.NewClient(ctx, cfg.Firestore)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Firestore")
		}
		return infrafirestore.NewStore(client, log), nil, func() {}
	default:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return memstore.New(), nil, func() {}
	}
}
