package proposal

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"

	"github.com/gofiber/fiber/v2"
)

type ProposalController struct {
	Service ProposalService
}

func NewProposalController(service ProposalService) *ProposalController {
	return &ProposalController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrProposalNotFound) {
		return apierror.Respond(c, fiber.StatusNotFound, err)
	}
	return apierror.Respond(c, fiber.StatusInternalServerError, err)
}

// ListProposals godoc
// @Summary      List proposals, newest first
// @Tags         proposals
// @Produce      json
// @Success      200  {array}  ProposalDetail
// @Router       /proposals [get]
func (ctrl *ProposalController) ListProposals(c *fiber.Ctx) error {
	proposals, err := ctrl.Service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(proposals)
}

func (ctrl *ProposalController) GetProposal(c *fiber.Ctx) error {
	p, err := ctrl.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// CreateProposal godoc
// @Summary      Create a proposal
// @Description  The codigo is generated by the server.
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Param        proposal  body  Proposal  true  "Proposal"
// @Success      201  {object}  Proposal
// @Router       /proposals [post]
func (ctrl *ProposalController) CreateProposal(c *fiber.Ctx) error {
	var p Proposal
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	created, err := ctrl.Service.Create(c.UserContext(), &p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctrl *ProposalController) UpdateProposal(c *fiber.Ctx) error {
	var req UpdateProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	updated, err := ctrl.Service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}
