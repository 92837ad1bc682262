package ports

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma unidad atómica.
type Repos struct {
	Products     repository.ProductRepository
	Branches     repository.BranchRepository
	BranchStock  repository.BranchStockRepository
	Sales        repository.SaleRepository
	MonthlySales repository.MonthlySalesRepository
	Users        repository.UserRepository
}

// TxRunner ejecuta fn como una unidad todo-o-nada, pasando repositorios atados a esa unidad.
// Dentro de fn todas las lecturas deben hacerse antes de la primera escritura. Si otra escritura
// invalida lo leído, Run retorna domain.ErrConflict sin reintentar.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
