package dashboard

import (
	"crm-imobiliario/internal/common/apierror"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	Service DashboardService
}

func NewDashboardController(service DashboardService) *DashboardController {
	return &DashboardController{Service: service}
}

// GetMetrics godoc
// @Summary      Headline dashboard metrics
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Metrics
// @Router       /dashboard/metrics [get]
func (ctrl *DashboardController) GetMetrics(c *fiber.Ctx) error {
	metrics, err := ctrl.Service.Metrics(c.UserContext())
	if err != nil {
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(metrics)
}

func (ctrl *DashboardController) GetFunnel(c *fiber.Ctx) error {
	data, err := ctrl.Service.FunnelData(c.UserContext())
	if err != nil {
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(data)
}

func (ctrl *DashboardController) GetRecentActivities(c *fiber.Ctx) error {
	data, err := ctrl.Service.RecentActivities(c.UserContext())
	if err != nil {
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(data)
}

func (ctrl *DashboardController) GetLeadsEvolution(c *fiber.Ctx) error {
	data, err := ctrl.Service.LeadsEvolution(c.UserContext())
	if err != nil {
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(data)
}

func (ctrl *DashboardController) GetVisitsChart(c *fiber.Ctx) error {
	data, err := ctrl.Service.VisitsChart(c.UserContext())
	if err != nil {
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(data)
}
