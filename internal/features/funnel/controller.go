package funnel

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"
	"crm-imobiliario/internal/features/lead"

	"github.com/gofiber/fiber/v2"
)

type FunnelController struct {
	Service FunnelService
}

func NewFunnelController(service FunnelService) *FunnelController {
	return &FunnelController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidMove):
		return apierror.Respond(c, fiber.StatusBadRequest, err)
	case errors.Is(err, ErrStageNotFound), errors.Is(err, lead.ErrLeadNotFound):
		return apierror.Respond(c, fiber.StatusNotFound, err)
	case errors.Is(err, ErrStageInUse), errors.Is(err, ErrNoStages):
		return apierror.Respond(c, fiber.StatusConflict, err)
	default:
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
}

func (ctrl *FunnelController) ListStages(c *fiber.Ctx) error {
	stages, err := ctrl.Service.ListStages(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stages)
}

func (ctrl *FunnelController) CreateStage(c *fiber.Ctx) error {
	var stage Stage
	if err := c.BodyParser(&stage); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	created, err := ctrl.Service.CreateStage(c.UserContext(), &stage)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctrl *FunnelController) UpdateStage(c *fiber.Ctx) error {
	var stage Stage
	if err := c.BodyParser(&stage); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	updated, err := ctrl.Service.UpdateStage(c.UserContext(), c.Params("id"), &stage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (ctrl *FunnelController) DeleteStage(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteStage(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Board godoc
// @Summary      Kanban board
// @Description  Memberships of open leads joined with lead and stage
// @Tags         funnel
// @Produce      json
// @Success      200  {array}  BoardEntry
// @Router       /funnel/board [get]
func (ctrl *FunnelController) Board(c *fiber.Ctx) error {
	board, err := ctrl.Service.Board(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(board)
}

// MoveLead godoc
// @Summary      Move a lead to another stage
// @Tags         funnel
// @Accept       json
// @Produce      json
// @Param        leadId  path  string  true  "Lead ID"
// @Param        body    body  object  true  "{\"etapa_id\": \"...\"}"
// @Success      200  {object}  MoveResult
// @Failure      400  {object}  map[string]interface{}
// @Router       /funnel/leads/{leadId}/stage [put]
func (ctrl *FunnelController) MoveLead(c *fiber.Ctx) error {
	var body struct {
		EtapaID string `json:"etapa_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := ctrl.Service.MoveLead(c.UserContext(), c.Params("leadId"), body.EtapaID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// SyncLeads godoc
// @Summary      Add every lead missing from the funnel to the first stage
// @Tags         funnel
// @Produce      json
// @Success      200  {object}  SyncResult
// @Router       /funnel/sync [post]
func (ctrl *FunnelController) SyncLeads(c *fiber.Ctx) error {
	result, err := ctrl.Service.SyncLeadsToFunnel(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
