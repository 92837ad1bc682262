// seed crea el administrador inicial (BOOTSTRAP_ADMIN_*) y, con -demo, sucursales y productos de
// ejemplo con stock transferido, contra el almacén configurado en STORE_DRIVER.
//
// Uso: go run ./cmd/seed [-demo]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/application/auth"
	"github.com/jhoicas/stock-sucursales/internal/application/branches"
	"github.com/jhoicas/stock-sucursales/internal/application/catalog"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ledger"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	infrafirestore "github.com/jhoicas/stock-sucursales/internal/infrastructure/firestore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-sucursales/pkg/config"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

type demoProduct struct {
	name, category, unit, price string
	stock                       int64
}

var (
	demoBranches = []dto.CreateBranchRequest{
		{Name: "Sucursal Norte", Location: "Av. Norte 120"},
		{Name: "Sucursal Centro", Location: "Calle 10 # 4-21"},
		{Name: "Sucursal Sur", Location: "Cra. 45 Sur 8"},
	}
	demoProducts = []demoProduct{
		{"Leche entera", "lácteos", "L", "4200", 120},
		{"Pan tajado", "panadería", "und", "6500", 60},
		{"Arroz", "granos", "kg", "5300", 200},
		{"Huevos AA x30", "huevos", "und", "18900", 40},
	}
)

func main() {
	demo := flag.Bool("demo", false, "crear sucursales y productos de ejemplo")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, App: "seed"})
	if cfg.Store.Driver == config.StoreMemory {
		log.Fatal().Msg("STORE_DRIVER=memory no persiste datos; use postgres o firestore")
	}
	if cfg.Bootstrap.AdminUsername == "" {
		log.Fatal().Msg("BOOTSTRAP_ADMIN_USERNAME es obligatorio")
	}

	ctx := context.Background()
	store, closeBackend, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer closeBackend()
	defer func() { _ = store.Close() }()

	repos := docstore.NewRepos(store)
	txRunner := docstore.NewTxRunner(store)
	authUC := auth.NewAuthUseCase(txRunner, repos.Users, identity.NewBus(), auth.JWTConfig{Secret: cfg.JWT.Secret}, log)
	created, err := authUC.SeedAdmin(ctx, auth.BootstrapAdmin{
		Username: cfg.Bootstrap.AdminUsername,
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador")
	}
	log.Info().Bool("created", created).Str("username", cfg.Bootstrap.AdminUsername).Msg("administrador inicial")

	if !*demo {
		return
	}
	adminCtx := identity.WithIdentity(ctx, identity.Identity{UserID: "seed", Username: "seed", Role: entity.RoleAdmin})
	if err := seedDemo(adminCtx, cfg, repos, txRunner, log); err != nil {
		log.Fatal().Err(err).Msg("datos de ejemplo")
	}
}

// seedDemo crea las sucursales y productos que aún no existen y reparte un tercio del stock central
// entre las sucursales.
func seedDemo(ctx context.Context, cfg *config.Config, repos ports.Repos, txRunner *docstore.TxRunner, log *logger.Logger) error {
	branchUC := branches.NewBranchUseCase(txRunner, repos.Branches, log, nil)
	catalogUC := catalog.NewCatalogUseCase(txRunner, repos.Products, nil, log, catalog.Options{
		SerialWidth:       cfg.Ledger.SerialWidth,
		LowStockThreshold: cfg.Ledger.LowStockThreshold,
	})
	ledgerUC := ledger.NewLedgerUseCase(txRunner, repos.Products, repos.Branches, repos.BranchStock, nil, log,
		ledger.Options{LowStockThreshold: cfg.Ledger.LowStockThreshold})

	existingBranches, err := branchUC.ListBranches(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(existingBranches))
	for _, b := range existingBranches {
		byName[b.Name] = b.ID
	}
	branchIDs := make([]string, 0, len(demoBranches))
	for _, in := range demoBranches {
		if id, ok := byName[in.Name]; ok {
			branchIDs = append(branchIDs, id)
			continue
		}
		b, err := branchUC.CreateBranch(ctx, in)
		if err != nil {
			return fmt.Errorf("sucursal %s: %w", in.Name, err)
		}
		branchIDs = append(branchIDs, b.ID)
	}

	catalogList, err := catalogUC.ListProducts(ctx)
	if err != nil {
		return err
	}
	existingProducts := make(map[string]bool, len(catalogList.Items))
	for _, p := range catalogList.Items {
		existingProducts[p.Name] = true
	}
	for _, dp := range demoProducts {
		if existingProducts[dp.name] {
			continue
		}
		price := decimal.RequireFromString(dp.price)
		p, err := catalogUC.AddProduct(ctx, dto.CreateProductRequest{
			Name: dp.name, Category: dp.category, Unit: dp.unit, Price: &price, InitialStock: dp.stock,
		})
		if err != nil {
			return fmt.Errorf("producto %s: %w", dp.name, err)
		}
		share := dp.stock / 3 / int64(len(branchIDs))
		for _, branchID := range branchIDs {
			if share == 0 {
				break
			}
			_, err := ledgerUC.TransferStock(ctx, dto.TransferRequest{ProductID: p.ID, BranchID: branchID, Quantity: share})
			if err != nil {
				return fmt.Errorf("transferir %s: %w", dp.name, err)
			}
		}
	}
	log.Info().Int("branches", len(branchIDs)).Int("products", len(demoProducts)).Msg("datos de ejemplo listos")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.DocumentStore, func(), error) {
	if cfg.Store.Driver == config.StoreFirestore {
		client, err := infrafirestore.NewClient(ctx, cfg.Firestore)
		if err != nil {
			return nil, nil, err
		}
		return infrafirestore.NewStore(client, log), func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return postgres.NewStore(pool, log), pool.Close, nil
}
