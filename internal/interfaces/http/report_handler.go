package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/reporting"
)

// ReportHandler expone stock bajo, acumulados mensuales y exportación.
type ReportHandler struct {
	uc  *reporting.ReportingUseCase
	now func() time.Time
}

// NewReportHandler construye el handler. now define el período por defecto cuando no se indica.
func NewReportHandler(uc *reporting.ReportingUseCase, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{uc: uc, now: now}
}

// period lee year y month de la query; si faltan usa el mes actual en la zona de los acumulados.
func (h *ReportHandler) period(c *fiber.Ctx) (int, int) {
	current := h.uc.CurrentPeriod(h.now())
	return c.QueryInt("year", current.Year), c.QueryInt("month", current.Month)
}

// LowStock godoc
// @Summary      Alerta de stock bajo
// @Description  Admin: stock central. Encargado: líneas de su sucursal.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LowStockResponse
// @Router       /api/reports/low-stock [get]
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.uc.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Monthly godoc
// @Summary      Acumulado mensual de una sucursal
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        branchId  path   string  true   "ID de la sucursal"
// @Param        year      query  int     false  "Año (por defecto el actual)"
// @Param        month     query  int     false  "Mes 1-12 (por defecto el actual)"
// @Success      200  {object}  dto.MonthlySalesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly/{branchId} [get]
func (h *ReportHandler) Monthly(c *fiber.Ctx) error {
	year, month := h.period(c)
	out, err := h.uc.GetMonthlySales(c.UserContext(), c.Params("branchId"), year, month)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sin ventas registradas en el período"})
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      Cerrar período
// @Description  Un período cerrado no acepta más ventas.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        branchId  path   string  true   "ID de la sucursal"
// @Param        year      query  int     false  "Año"
// @Param        month     query  int     false  "Mes 1-12"
// @Success      200  {object}  dto.MonthlySalesResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly/{branchId}/close [post]
func (h *ReportHandler) Close(c *fiber.Ctx) error {
	year, month := h.period(c)
	out, err := h.uc.ClosePeriod(c.UserContext(), c.Params("branchId"), year, month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar acumulado contra ventas
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        branchId  path   string  true   "ID de la sucursal"
// @Param        year      query  int     false  "Año"
// @Param        month     query  int     false  "Mes 1-12"
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/reports/monthly/{branchId}/reconcile [get]
func (h *ReportHandler) Reconcile(c *fiber.Ctx) error {
	year, month := h.period(c)
	out, err := h.uc.ReconcileMonth(c.UserContext(), c.Params("branchId"), year, month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Exportar reporte mensual
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      application/pdf
// @Param        year    query  int     false  "Año"
// @Param        month   query  int     false  "Mes 1-12"
// @Param        format  query  string  false  "xlsx o pdf"  default(xlsx)
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly/export [get]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	year, month := h.period(c)
	content, contentType, filename, err := h.uc.ExportMonthly(c.UserContext(), year, month, c.Query("format", "xlsx"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}
