package reporting

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/user"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportingApi struct {
	Controller *ReportingController
	Config     *config.Config
}

func NewReportingApi(controller *ReportingController, cfg *config.Config) api.Route {
	return &ReportingApi{Controller: controller, Config: cfg}
}

func (h *ReportingApi) Setup(app *fiber.App) {
	reporting := app.Group("/api/reporting",
		middleware.AuthMiddleware(h.Config.SkipAuth),
		middleware.RequireRole(h.Config.SkipAuth, user.RoleAdmin),
	)
	reporting.Post("/export", h.Controller.Export)
	reporting.Get("/runs", h.Controller.ListRuns)
}
