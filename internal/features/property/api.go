package property

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PropertyApi struct {
	Controller *PropertyController
	Config     *config.Config
}

func NewPropertyApi(controller *PropertyController, cfg *config.Config) api.Route {
	return &PropertyApi{Controller: controller, Config: cfg}
}

func (h *PropertyApi) Setup(app *fiber.App) {
	properties := app.Group("/api/properties", middleware.AuthMiddleware(h.Config.SkipAuth))
	properties.Get("/", h.Controller.ListProperties)
	properties.Post("/", h.Controller.CreateProperty)
	properties.Get("/:id", h.Controller.GetProperty)
	properties.Put("/:id", h.Controller.UpdateProperty)
	properties.Delete("/:id", middleware.RequireRole(h.Config.SkipAuth, "admin", "corretor"), h.Controller.DeleteProperty)
}
