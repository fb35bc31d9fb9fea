package visit

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"

	"github.com/gofiber/fiber/v2"
)

type VisitController struct {
	Service VisitService
}

func NewVisitController(service VisitService) *VisitController {
	return &VisitController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrVisitNotFound) {
		return apierror.Respond(c, fiber.StatusNotFound, err)
	}
	return apierror.Respond(c, fiber.StatusInternalServerError, err)
}

// ListVisits godoc
// @Summary      List visits with lead and property
// @Tags         visits
// @Produce      json
// @Success      200  {array}  VisitDetail
// @Router       /visits [get]
func (ctrl *VisitController) ListVisits(c *fiber.Ctx) error {
	visits, err := ctrl.Service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(visits)
}

func (ctrl *VisitController) GetVisit(c *fiber.Ctx) error {
	v, err := ctrl.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(v)
}

// CreateVisit godoc
// @Summary      Schedule a visit
// @Description  data_hora is RFC 3339. The visit is pushed to the caller's Google Calendar when connected.
// @Tags         visits
// @Accept       json
// @Produce      json
// @Param        visit  body  Visit  true  "Visit"
// @Success      201  {object}  Visit
// @Router       /visits [post]
func (ctrl *VisitController) CreateVisit(c *fiber.Ctx) error {
	var v Visit
	if err := c.BodyParser(&v); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	created, err := ctrl.Service.Create(c.UserContext(), &v)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctrl *VisitController) UpdateVisit(c *fiber.Ctx) error {
	var req UpdateVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	updated, err := ctrl.Service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (ctrl *VisitController) DeleteVisit(c *fiber.Ctx) error {
	if err := ctrl.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
