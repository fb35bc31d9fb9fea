package funnel

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type FunnelApi struct {
	Controller *FunnelController
	Config     *config.Config
}

func NewFunnelApi(controller *FunnelController, cfg *config.Config) api.Route {
	return &FunnelApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *FunnelApi) Setup(app *fiber.App) {
	funnel := app.Group("/api/funnel", middleware.AuthMiddleware(h.Config.SkipAuth))
	adminOnly := middleware.RequireRole(h.Config.SkipAuth, "admin")

	funnel.Get("/stages", h.Controller.ListStages)
	funnel.Post("/stages", adminOnly, h.Controller.CreateStage)
	funnel.Put("/stages/:id", adminOnly, h.Controller.UpdateStage)
	funnel.Delete("/stages/:id", adminOnly, h.Controller.DeleteStage)

	funnel.Get("/board", h.Controller.Board)
	funnel.Put("/leads/:leadId/stage", h.Controller.MoveLead)
	funnel.Post("/sync", h.Controller.SyncLeads)
}
