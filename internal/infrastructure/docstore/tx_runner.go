package docstore

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de RunAtomic del almacén.
type TxRunner struct {
	store repository.DocumentStore
}

// NewTxRunner construye el runner con el almacén.
func NewTxRunner(store repository.DocumentStore) *TxRunner {
	return &TxRunner{store: store}
}

// Run abre la unidad atómica, ejecuta fn con repos atados a ella y aplica las escrituras al final.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repos) error) error {
	return r.store.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		return fn(NewRepos(tx))
	})
}

// NewRepos construye todos los repositorios sobre el mismo Querier.
func NewRepos(q Querier) ports.Repos {
	return ports.Repos{
		Products:     NewProductRepository(q),
		Branches:     NewBranchRepository(q),
		BranchStock:  NewBranchStockRepository(q),
		Sales:        NewSaleRepository(q),
		MonthlySales: NewMonthlySalesRepository(q),
		Users:        NewUserRepository(q),
	}
}
