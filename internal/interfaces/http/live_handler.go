package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/views"
)

// LiveHandler expone la vista en vivo del inventario.
type LiveHandler struct {
	view *views.LiveInventory
}

// NewLiveHandler construye el handler.
func NewLiveHandler(view *views.LiveInventory) *LiveHandler {
	return &LiveHandler{view: view}
}

// Inventory godoc
// @Summary      Inventario en vivo
// @Description  Último snapshot recibido de productos, sucursales y stock por sucursal.
// @Tags         live
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LiveInventoryResponse
// @Router       /api/live/inventory [get]
func (h *LiveHandler) Inventory(c *fiber.Ctx) error {
	return c.JSON(h.view.Snapshot())
}
