package ports

import "github.com/jhoicas/stock-sucursales/internal/application/dto"

// ReportRenderer genera el archivo del reporte mensual en un formato concreto (xlsx, pdf).
type ReportRenderer interface {
	Format() string
	ContentType() string
	Render(report dto.MonthlyReport) ([]byte, error)
}
