package scheduler

import (
	"errors"

	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/common/apierror"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/user"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SchedulerApi struct {
	Scheduler *Scheduler
	Config    *config.Config
}

func NewSchedulerApi(s *Scheduler, cfg *config.Config) api.Route {
	return &SchedulerApi{Scheduler: s, Config: cfg}
}

func (h *SchedulerApi) Setup(app *fiber.App) {
	jobs := app.Group("/api/scheduler/jobs",
		middleware.AuthMiddleware(h.Config.SkipAuth),
		middleware.RequireRole(h.Config.SkipAuth, user.RoleAdmin),
	)
	jobs.Get("/", h.ListJobs)
	jobs.Post("/:name/run", h.RunJob)
}

// ListJobs godoc
// @Summary      List periodic jobs
// @Tags         scheduler
// @Produce      json
// @Success      200  {array}  JobStatus
// @Router       /scheduler/jobs [get]
func (h *SchedulerApi) ListJobs(c *fiber.Ctx) error {
	return c.JSON(h.Scheduler.Jobs())
}

func (h *SchedulerApi) RunJob(c *fiber.Ctx) error {
	err := h.Scheduler.RunNow(c.Params("name"))
	switch {
	case errors.Is(err, ErrUnknownJob):
		return apierror.Respond(c, fiber.StatusNotFound, err)
	case err != nil:
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
