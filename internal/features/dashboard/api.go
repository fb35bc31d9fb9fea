package dashboard

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardApi struct {
	Controller *DashboardController
	Config     *config.Config
}

func NewDashboardApi(controller *DashboardController, cfg *config.Config) api.Route {
	return &DashboardApi{Controller: controller, Config: cfg}
}

func (h *DashboardApi) Setup(app *fiber.App) {
	dashboard := app.Group("/api/dashboard", middleware.AuthMiddleware(h.Config.SkipAuth))
	dashboard.Get("/metrics", h.Controller.GetMetrics)
	dashboard.Get("/funnel", h.Controller.GetFunnel)
	dashboard.Get("/recent-activities", h.Controller.GetRecentActivities)
	dashboard.Get("/leads-evolution", h.Controller.GetLeadsEvolution)
	dashboard.Get("/visits-chart", h.Controller.GetVisitsChart)
}
