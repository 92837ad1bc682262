package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/sales"
)

// SaleHandler registra y lista ventas de una sucursal.
type SaleHandler struct {
	uc *sales.SaleUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.SaleUseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Record godoc
// @Summary      Registrar venta
// @Description  Todos los ítems se aplican juntos o ninguno.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sucursal"
// @Param        body  body  dto.RecordSaleRequest  true  "Ítems vendidos"
// @Success      201   {object}  dto.RecordSaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/sales [post]
func (h *SaleHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.RecordSale(c.UserContext(), c.Params("id"), in.Items)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar ventas de la sucursal
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la sucursal"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.SaleListResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", dto.DefaultPageLimit), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.ListSales(c.UserContext(), c.Params("id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
