package realtime

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type RealtimeApi struct {
	Controller *RealtimeController
	Config     *config.Config
}

func NewRealtimeApi(controller *RealtimeController, cfg *config.Config) api.Route {
	return &RealtimeApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (h *RealtimeApi) Setup(app *fiber.App) {
	app.Get("/api/realtime",
		middleware.AuthMiddleware(h.Config.SkipAuth),
		func(c *fiber.Ctx) error {
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			return c.Next()
		},
		websocket.New(h.Controller.HandleWebSocket),
	)
}
