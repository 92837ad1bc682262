// Package views mantiene vistas en vivo del inventario alimentadas por las suscripciones del almacén.
package views

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-sucursales/internal/application/branches"
	"github.com/jhoicas/stock-sucursales/internal/application/catalog"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// LiveInventory se suscribe a productos, sucursales y stock por sucursal mientras haya al menos una
// sesión abierta. Cada snapshot reemplaza por completo la colección en caché.
type LiveInventory struct {
	feeds     repository.InventoryFeeds
	threshold int64
	log       *logger.Logger
	now       func() time.Time

	mu          sync.RWMutex
	active      bool
	cancel      context.CancelFunc
	unsubs      []repository.Unsubscribe
	products    []*entity.Product
	branches    []*entity.Branch
	branchStock []*entity.BranchStock
	updatedAt   *time.Time
}

// NewLiveInventory construye la vista y la engancha al bus de sesiones.
func NewLiveInventory(feeds repository.InventoryFeeds, bus *identity.Bus, threshold int64, log *logger.Logger) *LiveInventory {
	v := &LiveInventory{feeds: feeds, threshold: threshold, log: log.Component("views.live"), now: time.Now}
	bus.Listen(v.onSession)
	return v
}

func (v *LiveInventory) onSession(ev identity.Event) {
	switch {
	case ev.Kind == identity.SignedIn && ev.Active == 1:
		v.start()
	case ev.Kind == identity.SignedOut && ev.Active == 0:
		v.stop()
	}
}

func (v *LiveInventory) start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())

	var unsubs []repository.Unsubscribe
	steps := []func() (repository.Unsubscribe, error){
		func() (repository.Unsubscribe, error) {
			return v.feeds.SubscribeProducts(ctx, func(list []*entity.Product) {
				v.replace(func() { v.products = list })
			}, v.onError("products"))
		},
		func() (repository.Unsubscribe, error) {
			return v.feeds.SubscribeBranches(ctx, func(list []*entity.Branch) {
				v.replace(func() { v.branches = list })
			}, v.onError("branches"))
		},
		func() (repository.Unsubscribe, error) {
			return v.feeds.SubscribeBranchStock(ctx, func(list []*entity.BranchStock) {
				v.replace(func() { v.branchStock = list })
			}, v.onError("branchStock"))
		},
	}
	for _, step := range steps {
		u, err := step()
		if err != nil {
			for _, done := range unsubs {
				done()
			}
			cancel()
			v.log.Error().Err(err).Msg("no se pudo abrir la vista en vivo")
			return
		}
		unsubs = append(unsubs, u)
	}
	v.active, v.cancel, v.unsubs = true, cancel, unsubs
	v.log.Info().Msg("vista en vivo abierta")
}

func (v *LiveInventory) stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active {
		return
	}
	for _, u := range v.unsubs {
		u()
	}
	v.cancel()
	v.active, v.cancel, v.unsubs = false, nil, nil
	v.products, v.branches, v.branchStock, v.updatedAt = nil, nil, nil, nil
	v.log.Info().Msg("vista en vivo cerrada")
}

// replace aplica un snapshot solo si la vista sigue activa.
func (v *LiveInventory) replace(set func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active {
		return
	}
	set()
	at := v.now()
	v.updatedAt = &at
}

func (v *LiveInventory) onError(collection string) repository.ErrorFunc {
	return func(err error) {
		v.log.Error().Err(err).Str("collection", collection).Msg("suscripción terminada")
	}
}

// Active indica si la vista está suscrita.
func (v *LiveInventory) Active() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active
}

// Snapshot devuelve el estado en caché. Sin sesiones abiertas las listas van vacías.
func (v *LiveInventory) Snapshot() dto.LiveInventoryResponse {
	v.mu.RLock()
	products := append([]*entity.Product(nil), v.products...)
	branchList := append([]*entity.Branch(nil), v.branches...)
	stock := append([]*entity.BranchStock(nil), v.branchStock...)
	out := dto.LiveInventoryResponse{Active: v.active, UpdatedAt: v.updatedAt}
	v.mu.RUnlock()

	catalog.SortBySerial(products)
	names := make(map[string]string, len(products))
	out.Products = make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
		out.Products = append(out.Products, *catalog.ToProductResponse(p, v.threshold))
	}

	sort.SliceStable(branchList, func(i, j int) bool { return branchList[i].Name < branchList[j].Name })
	out.Branches = make([]dto.BranchResponse, 0, len(branchList))
	for _, b := range branchList {
		out.Branches = append(out.Branches, *branches.ToBranchResponse(b))
	}

	out.BranchStock = make([]dto.BranchStockResponse, 0, len(stock))
	for _, l := range stock {
		out.BranchStock = append(out.BranchStock, dto.BranchStockResponse{
			ProductID:   l.ProductID,
			ProductName: names[l.ProductID],
			BranchID:    l.BranchID,
			Quantity:    l.Quantity,
			LowStock:    l.Quantity < v.threshold,
			UpdatedAt:   l.UpdatedAt,
		})
	}
	sort.SliceStable(out.BranchStock, func(i, j int) bool {
		if out.BranchStock[i].BranchID != out.BranchStock[j].BranchID {
			return out.BranchStock[i].BranchID < out.BranchStock[j].BranchID
		}
		return out.BranchStock[i].ProductName < out.BranchStock[j].ProductName
	})
	return out
}
