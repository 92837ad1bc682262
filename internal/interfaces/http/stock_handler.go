package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/ledger"
)

// StockHandler maneja transferencias y consultas de stock por sucursal.
type StockHandler struct {
	uc *ledger.LedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *ledger.LedgerUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Transfer godoc
// @Summary      Transferir stock a una sucursal
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Producto, sucursal y cantidad"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.TransferStock(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByBranch godoc
// @Summary      Stock de una sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sucursal"
// @Success      200  {array}  dto.BranchStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/stock [get]
func (h *StockHandler) ListByBranch(c *fiber.Ctx) error {
	out, err := h.uc.ListBranchStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetQuantity godoc
// @Summary      Cantidad de un producto en una sucursal
// @Description  0 si la sucursal no tiene línea para el producto.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id         path  string  true  "ID de la sucursal"
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.BranchStockResponse
// @Router       /api/branches/{id}/stock/{productId} [get]
func (h *StockHandler) GetQuantity(c *fiber.Ctx) error {
	branchID, productID := c.Params("id"), c.Params("productId")
	qty, err := h.uc.GetBranchStock(c.UserContext(), productID, branchID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BranchStockResponse{
		ProductID: productID,
		BranchID:  branchID,
		Quantity:  qty,
		LowStock:  h.uc.IsLow(qty),
	})
}
