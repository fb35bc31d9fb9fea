package auth

import (
	"crm-imobiliario/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
}

func NewAuthApi(controller *AuthController) api.Route {
	return &AuthApi{
		controller: controller,
	}
}

// Setup registers the public auth routes
func (h *AuthApi) Setup(app *fiber.App) {
	app.Post("/api/register", h.controller.Register)
	app.Post("/api/login", h.controller.Login)
}
