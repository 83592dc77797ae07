package controllers

import (
	"errors"

	"coursesync/database"
	"coursesync/engine"
	"coursesync/middleware"
	"coursesync/models"
	courseValidator "coursesync/validators/course"

	"github.com/gofiber/fiber/v2"
)

// ProgressController serves progress aggregates from the local replica and
// records quiz attempts through the sync engine.
type ProgressController struct {
	Store  *database.Store
	Engine *engine.Engine
}

func NewProgressController(store *database.Store, eng *engine.Engine) *ProgressController {
	return &ProgressController{Store: store, Engine: eng}
}

// RecordQuizAttempt records the caller's score for one lesson. The attempt
// counts locally right away; the refreshed aggregate row is queued for
// uplink.
func (ctl *ProgressController) RecordQuizAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedAttempt").(*courseValidator.QuizAttemptRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	progress, err := ctl.Engine.RecordQuizAttempt(userID, reqData.CourseID, reqData.LessonID, *reqData.Score)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrCourseNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		case errors.Is(err, engine.ErrLessonNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
		case errors.Is(err, engine.ErrInvalidScore):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Score must be between 0 and 100!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record attempt!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt recorded successfully!", progress)
}

// GetMyProgress returns the caller's own progress row.
func (ctl *ProgressController) GetMyProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	progress, err := ctl.Store.Progress(userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	if progress == nil {
		progress = &models.StudentProgress{StudentID: userID}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
}

// GetClassProgress returns progress for every student in the caller's class.
// Teacher-only: used for the class overview.
func (ctl *ProgressController) GetClassProgress(c *fiber.Ctx) error {
	class, ok := c.Locals("class").(int)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	profiles, err := ctl.Store.ProfilesForClass(class)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch class roster!", nil)
	}

	studentIDs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.Role == models.RoleStudent {
			studentIDs = append(studentIDs, p.ID)
		}
	}

	progress, err := ctl.Store.ProgressForStudents(studentIDs)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"progress": progress,
	})
}
