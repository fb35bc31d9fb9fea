package auth

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"
	"crm-imobiliario/internal/features/user"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	AuthService AuthService
}

func NewAuthController(authService AuthService) *AuthController {
	return &AuthController{
		AuthService: authService,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Self-service sign up; the account gets the corretor role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterRequest true "Register Input"
// @Success      201  {object} user.User
// @Failure      400  {object} apierror.StructuredError
// @Failure      409  {object} map[string]string
// @Router       /register [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	u, err := ctrl.AuthService.Register(c.UserContext(), req)
	if errors.Is(err, user.ErrEmailTaken) {
		return apierror.Respond(c, fiber.StatusConflict, err)
	}
	if err != nil {
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(u)
}

// Login godoc
// @Summary      Login
// @Description  Login with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginRequest true "Login Input"
// @Success      200  {object} AuthResponse
// @Failure      401  {object} map[string]string
// @Router       /login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := ctrl.AuthService.Login(c.UserContext(), req)
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactiveAccount):
		return apierror.Respond(c, fiber.StatusUnauthorized, err)
	case err != nil:
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(resp)
}
