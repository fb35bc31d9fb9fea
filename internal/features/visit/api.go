package visit

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type VisitApi struct {
	Controller *VisitController
	Config     *config.Config
}

func NewVisitApi(controller *VisitController, cfg *config.Config) api.Route {
	return &VisitApi{Controller: controller, Config: cfg}
}

func (h *VisitApi) Setup(app *fiber.App) {
	visits := app.Group("/api/visits", middleware.AuthMiddleware(h.Config.SkipAuth))
	visits.Get("/", h.Controller.ListVisits)
	visits.Post("/", h.Controller.CreateVisit)
	visits.Get("/:id", h.Controller.GetVisit)
	visits.Put("/:id", h.Controller.UpdateVisit)
	visits.Delete("/:id", h.Controller.DeleteVisit)
}
