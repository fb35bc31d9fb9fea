package user

import (
	"errors"

	"crm-imobiliario/internal/common/apierror"
	"crm-imobiliario/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apierror.Respond(c, fiber.StatusNotFound, err)
	case errors.Is(err, ErrEmailTaken):
		return apierror.Respond(c, fiber.StatusConflict, err)
	case errors.Is(err, ErrForbidden):
		return apierror.Respond(c, fiber.StatusForbidden, err)
	case errors.Is(err, utils.ErrNoActor):
		return apierror.Respond(c, fiber.StatusUnauthorized, err)
	}
	return apierror.Respond(c, fiber.StatusInternalServerError, err)
}

// ListUsers godoc
// @Summary      List team members with their roles
// @Tags         users
// @Produce      json
// @Success      200  {array}  User
// @Router       /users [get]
func (ctrl *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := ctrl.Service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

func (ctrl *UserController) GetMe(c *fiber.Ctx) error {
	u, err := ctrl.Service.Me(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(u)
}

func (ctrl *UserController) GetUser(c *fiber.Ctx) error {
	u, err := ctrl.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(u)
}

func (ctrl *UserController) UpdateUser(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	u, err := ctrl.Service.UpdateProfile(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(u)
}

// InviteUser godoc
// @Summary      Invite a team member
// @Description  Creates an active user with the given role. The temporary password is only returned here.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input  body  InviteRequest  true  "Invite"
// @Success      201  {object}  InviteResult
// @Failure      409  {object}  map[string]string
// @Router       /users/invite [post]
func (ctrl *UserController) InviteUser(c *fiber.Ctx) error {
	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	result, err := ctrl.Service.Invite(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (ctrl *UserController) UpdateUserRole(c *fiber.Ctx) error {
	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := ctrl.Service.UpdateRole(c.UserContext(), c.Params("id"), req.Role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Função atualizada com sucesso"})
}
