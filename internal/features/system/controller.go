package system

import (
	"crm-imobiliario/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SystemController struct {
	Database Pinger
	Logger   *zap.Logger
}

func NewSystemController(db Pinger, logger *zap.Logger) *SystemController {
	return &SystemController{Database: db, Logger: logger}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Check if the server is up
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /health [get]
func (ctrl *SystemController) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Ready godoc
// @Summary      Readiness check
// @Description  Reports 503 while MongoDB does not answer
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health/ready [get]
func (ctrl *SystemController) Ready(c *fiber.Ctx) error {
	if err := ctrl.Database.Ping(c.UserContext()); err != nil {
		ctrl.Logger.Warn("readiness check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "mongodb": "down"})
	}
	return c.JSON(fiber.Map{"status": "ok", "mongodb": "up"})
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the current user's info from JWT
// @Tags         debug
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /debug/me [get]
func (ctrl *SystemController) GetCurrentUser(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return c.JSON(fiber.Map{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
		"message": "This is your current JWT token data",
	})
}
