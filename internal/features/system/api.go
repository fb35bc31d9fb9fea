package system

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

type SystemApi struct {
	Controller *SystemController
	Config     *config.Config
}

func NewSystemApi(controller *SystemController, cfg *config.Config) api.Route {
	return &SystemApi{Controller: controller, Config: cfg}
}

func (h *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", h.Controller.HealthCheck)
	app.Get("/health/ready", h.Controller.Ready)
	app.Get("/swagger/*", swagger.HandlerDefault)

	debug := app.Group("/api/debug", middleware.AuthMiddleware(h.Config.SkipAuth))
	debug.Get("/me", h.Controller.GetCurrentUser)
}
