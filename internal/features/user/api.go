package user

import (
	"crm-imobiliario/internal/common/api"
	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	Controller *UserController
	Config     *config.Config
}

func NewUserApi(controller *UserController, cfg *config.Config) api.Route {
	return &UserApi{Controller: controller, Config: cfg}
}

func (h *UserApi) Setup(app *fiber.App) {
	adminOnly := middleware.RequireRole(h.Config.SkipAuth, RoleAdmin)

	users := app.Group("/api/users", middleware.AuthMiddleware(h.Config.SkipAuth))
	users.Get("/", h.Controller.ListUsers)
	users.Get("/me", h.Controller.GetMe)
	users.Post("/invite", adminOnly, h.Controller.InviteUser)
	users.Get("/:id", h.Controller.GetUser)
	users.Put("/:id", h.Controller.UpdateUser)
	users.Put("/:id/role", adminOnly, h.Controller.UpdateUserRole)
}
