package activity

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ActivityApi struct {
	ActivityController *ActivityController
	Config             *config.Config
}

func NewActivityApi(activityController *ActivityController, config *config.Config) api.Route {
	return &ActivityApi{
		ActivityController: activityController,
		Config:             config,
	}
}

func (api *ActivityApi) Setup(app *fiber.App) {
	group := app.Group("/api/activities", middleware.AuthMiddleware(api.Config.SkipAuth))
	group.Get("/", api.ActivityController.ListActivities)
}
