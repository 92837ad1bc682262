package dto

// Límites de paginación de los listados de ventas.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest ventana de un listado: Limit elementos a partir de Offset.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage normaliza la ventana: Limit en [1, MaxPageLimit] (DefaultPageLimit si no viene)
// y Offset no negativo.
func (p *PageRequest) DefaultPage() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse ventana aplicada y total de elementos del listado.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP; Code es estable (VALIDATION, NOT_FOUND, INSUFFICIENT_STOCK...).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
