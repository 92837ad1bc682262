package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/branches"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
)

// BranchHandler maneja las sucursales (protegido).
type BranchHandler struct {
	uc *branches.BranchUseCase
}

// NewBranchHandler construye el handler.
func NewBranchHandler(uc *branches.BranchUseCase) *BranchHandler {
	return &BranchHandler{uc: uc}
}

// List godoc
// @Summary      Listar sucursales
// @Tags         branches
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BranchResponse
// @Router       /api/branches [get]
func (h *BranchHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListBranches(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear sucursal
// @Tags         branches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBranchRequest  true  "Datos de la sucursal"
// @Success      201   {object}  dto.BranchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/branches [post]
func (h *BranchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBranchRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CreateBranch(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar sucursal
// @Tags         branches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sucursal"
// @Param        body  body  dto.UpdateBranchRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.BranchResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/branches/{id} [put]
func (h *BranchHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateBranchRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpdateBranch(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AssignManager godoc
// @Summary      Asignar encargado
// @Description  user_id vacío deja la sucursal sin encargado.
// @Tags         branches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la sucursal"
// @Param        body  body  dto.AssignManagerRequest  true  "Encargado"
// @Success      200   {object}  dto.BranchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/branches/{id}/manager [put]
func (h *BranchHandler) AssignManager(c *fiber.Ctx) error {
	var in dto.AssignManagerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AssignManager(c.UserContext(), c.Params("id"), in.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
