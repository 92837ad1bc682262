package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/catalog"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/ledger"
)

// ProductHandler maneja las peticiones HTTP del catálogo (protegido).
type ProductHandler struct {
	uc     *catalog.CatalogUseCase
	ledger *ledger.LedgerUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.CatalogUseCase, ledgerUC *ledger.LedgerUseCase) *ProductHandler {
	return &ProductHandler{uc: uc, ledger: ledgerUC}
}

// Create godoc
// @Summary      Crear producto
// @Description  El número de serie se asigna automáticamente.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddProduct(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar o buscar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        q    query  string  false  "Texto a buscar en nombre, categoría o serial"
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.SearchProducts(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpdateProduct(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Description  Elimina también sus líneas de stock en sucursales.
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Replenish godoc
// @Summary      Reponer stock central
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.ReplenishRequest  true  "Cantidad a sumar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/replenish [post]
func (h *ProductHandler) Replenish(c *fiber.Ctx) error {
	var in dto.ReplenishRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Replenish(c.UserContext(), c.Params("id"), in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Availability godoc
// @Summary      Disponibilidad alternativa
// @Description  Bodega central primero y luego las demás sucursales con stock.
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id                 path   string  true   "ID del producto"
// @Param        exclude_branch_id  query  string  false  "Sucursal a excluir (por defecto la del encargado)"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/availability [get]
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	exclude := c.Query("exclude_branch_id", GetBranchID(c))
	out, err := h.ledger.ListAlternateAvailability(c.UserContext(), c.Params("id"), exclude)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
