package calendar

import (
	"strings"

	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/user"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CalendarApi struct {
	Controller *CalendarController
	Config     *config.Config
}

func NewCalendarApi(controller *CalendarController, cfg *config.Config) api.Route {
	return &CalendarApi{Controller: controller, Config: cfg}
}

// Public routes live outside the /api/calendar/google prefix so the group's
// auth middleware does not apply to them.
func (h *CalendarApi) Setup(app *fiber.App) {
	app.Get("/google-calendar-callback", h.Controller.Callback(openerOrigin(h.Config.AllowedOrigins)))
	app.Post("/api/webhooks/google-calendar", h.Controller.Webhook)

	google := app.Group("/api/calendar/google", middleware.AuthMiddleware(h.Config.SkipAuth))
	google.Post("/auth", h.Controller.BeginAuthorization)
	google.Get("/auth/:state", h.Controller.AuthorizationStatus)
	google.Post("/auth/:state/cancel", h.Controller.CancelAuthorization)
	google.Post("/exchange", h.Controller.Exchange)
	google.Get("/status", h.Controller.Status)
	google.Delete("/", h.Controller.Disconnect)
	google.Post("/sync", h.Controller.ManualSync)
	google.Post("/channels/renew", middleware.RequireRole(h.Config.SkipAuth, user.RoleAdmin), h.Controller.RenewChannels)
}

// openerOrigin picks the postMessage target: the first configured frontend
// origin, or any origin when none is pinned.
func openerOrigin(allowed string) string {
	first, _, _ := strings.Cut(allowed, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return "*"
	}
	return first
}
