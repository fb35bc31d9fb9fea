package property

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"

	"github.com/gofiber/fiber/v2"
)

type PropertyController struct {
	Service PropertyService
}

func NewPropertyController(service PropertyService) *PropertyController {
	return &PropertyController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrPropertyNotFound) {
		return apierror.Respond(c, fiber.StatusNotFound, err)
	}
	return apierror.Respond(c, fiber.StatusInternalServerError, err)
}

// ListProperties godoc
// @Summary      List properties
// @Tags         properties
// @Produce      json
// @Param        status  query  string  false  "disponivel|reservado|vendido|alugado"
// @Success      200  {array}  Property
// @Router       /properties [get]
func (ctrl *PropertyController) ListProperties(c *fiber.Ctx) error {
	properties, err := ctrl.Service.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(properties)
}

func (ctrl *PropertyController) GetProperty(c *fiber.Ctx) error {
	p, err := ctrl.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (ctrl *PropertyController) CreateProperty(c *fiber.Ctx) error {
	var p Property
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	created, err := ctrl.Service.Create(c.UserContext(), &p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctrl *PropertyController) UpdateProperty(c *fiber.Ctx) error {
	var p Property
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	updated, err := ctrl.Service.Update(c.UserContext(), c.Params("id"), &p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (ctrl *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	if err := ctrl.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
