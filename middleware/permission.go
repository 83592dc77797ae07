package middleware

import (
	"coursesync/models"

	"github.com/gofiber/fiber/v2"
)

// RequireTeacher gates course/lesson authoring endpoints. The role comes
// straight from the session token set by JWTMiddleware.
func RequireTeacher(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  false,
			"message": "You do not have permission to access this resource!",
			"data":    nil,
		})
	}
	return c.Next()
}
