package activity

import (
	"github.com/gofiber/fiber/v2"
)

type ActivityController struct {
	ActivityService ActivityService
}

func NewActivityController(activityService ActivityService) *ActivityController {
	return &ActivityController{ActivityService: activityService}
}

// ListActivities godoc
// @Summary      System activity feed
// @Tags         activities
// @Produce      json
// @Param        limit  query  int  false  "max entries (default 20)"
// @Success      200  {array}  Activity
// @Router       /activities [get]
func (c *ActivityController) ListActivities(ctx *fiber.Ctx) error {
	activities, err := c.ActivityService.List(ctx.UserContext(), ctx.QueryInt("limit", 20))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch activities"})
	}
	return ctx.JSON(activities)
}
