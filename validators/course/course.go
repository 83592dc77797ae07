package courseValidator

import (
	"strings"

	"coursesync/middleware"
	"coursesync/models"

	"github.com/gofiber/fiber/v2"
)

// CourseRequest is the validated body for course create/update.
type CourseRequest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	ForClass    int             `json:"for_class"`
	Lessons     []models.Lesson `json:"lessons"`
}

// QuizAttemptRequest is the validated body for recording a quiz score.
type QuizAttemptRequest struct {
	CourseID string `json:"courseId"`
	LessonID string `json:"lessonId"`
	Score    *int   `json:"score"`
}

func validateQuiz(quiz []models.QuizQuestion, errors map[string]string) {
	for _, q := range quiz {
		if strings.TrimSpace(q.Question) == "" {
			errors["quiz"] = "Every quiz question needs a question text!"
			return
		}
		if len(q.Options) < 2 {
			errors["quiz"] = "Every quiz question needs at least 2 options!"
			return
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			errors["quiz"] = "Quiz correct option index is out of range!"
			return
		}
	}
}

func validateLesson(lesson *models.Lesson, errors map[string]string) {
	if strings.TrimSpace(lesson.Title) == "" {
		errors["title"] = "Lesson title is required!"
	}
	if strings.TrimSpace(lesson.Content) == "" {
		errors["content"] = "Lesson content is required!"
	}
	validateQuiz(lesson.Quiz, errors)
}

func SaveCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Validate Title
		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		} else if len(strings.TrimSpace(reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}

		// Validate target class
		if reqData.ForClass < 1 {
			errors["for_class"] = "Target class is required!"
		}

		for i := range reqData.Lessons {
			validateLesson(&reqData.Lessons[i], errors)
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

func SaveLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(models.Lesson)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		validateLesson(reqData, errors)

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

func QuizAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuizAttemptRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.CourseID) == "" {
			errors["courseId"] = "Course id is required!"
		}
		if strings.TrimSpace(reqData.LessonID) == "" {
			errors["lessonId"] = "Lesson id is required!"
		}
		if reqData.Score == nil {
			errors["score"] = "Score is required!"
		} else if *reqData.Score < 0 || *reqData.Score > 100 {
			errors["score"] = "Score must be between 0 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAttempt", reqData)
		return c.Next()
	}
}
