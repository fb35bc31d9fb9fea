package proposal

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProposalApi struct {
	Controller *ProposalController
	Config     *config.Config
}

func NewProposalApi(controller *ProposalController, cfg *config.Config) api.Route {
	return &ProposalApi{Controller: controller, Config: cfg}
}

func (h *ProposalApi) Setup(app *fiber.App) {
	proposals := app.Group("/api/proposals", middleware.AuthMiddleware(h.Config.SkipAuth))
	proposals.Get("/", h.Controller.ListProposals)
	proposals.Post("/", h.Controller.CreateProposal)
	proposals.Get("/:id", h.Controller.GetProposal)
	proposals.Put("/:id", h.Controller.UpdateProposal)
}
