package reporting

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"

	"github.com/gofiber/fiber/v2"
)

type ReportingController struct {
	Service ReportingService
}

func NewReportingController(service ReportingService) *ReportingController {
	return &ReportingController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrReportingDisabled):
		return apierror.Respond(c, fiber.StatusServiceUnavailable, err)
	case errors.Is(err, ErrExportRunning):
		return apierror.Respond(c, fiber.StatusConflict, err)
	}
	return apierror.Respond(c, fiber.StatusInternalServerError, err)
}

// Export godoc
// @Summary      Mirror the pipeline into the reporting database
// @Tags         reporting
// @Produce      json
// @Success      200  {object}  Run
// @Failure      503  {object}  map[string]string
// @Router       /reporting/export [post]
func (ctrl *ReportingController) Export(c *fiber.Ctx) error {
	run, err := ctrl.Service.Export(c.UserContext(), TriggerManual)
	if err != nil {
		if run != nil {
			return c.Status(fiber.StatusBadGateway).JSON(run)
		}
		return respondError(c, err)
	}
	return c.JSON(run)
}

func (ctrl *ReportingController) ListRuns(c *fiber.Ctx) error {
	runs, err := ctrl.Service.ListRuns(c.UserContext(), int64(c.QueryInt("limit", 20)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"enabled": ctrl.Service.Enabled(), "runs": runs})
}
