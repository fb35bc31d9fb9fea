package lead

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LeadApi struct {
	Controller *LeadController
	Config     *config.Config
}

func NewLeadApi(controller *LeadController, cfg *config.Config) api.Route {
	return &LeadApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *LeadApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.Config.SkipAuth)

	app.Get("/api/customers", auth, h.Controller.ListCustomers)

	leads := app.Group("/api/leads", auth)
	leads.Get("/", h.Controller.ListLeads)
	leads.Post("/", h.Controller.CreateLead)
	leads.Get("/export", h.Controller.ExportLeads)
	leads.Post("/import", h.Controller.ImportLeads)
	leads.Get("/:id", h.Controller.GetLead)
	leads.Put("/:id", h.Controller.UpdateLead)
	leads.Post("/:id/finalize", h.Controller.FinalizeLead)
	leads.Delete("/:id", middleware.RequireRole(h.Config.SkipAuth, "admin", "corretor"), h.Controller.DeleteLead)
	leads.Get("/:id/interactions", h.Controller.ListInteractions)
	leads.Post("/:id/interactions", h.Controller.AddInteraction)
}
