package controllers

import (
	"errors"
	"io"
	"log"

	"coursesync/database"
	"coursesync/engine"
	"coursesync/middleware"
	"coursesync/models"
	courseValidator "coursesync/validators/course"

	"github.com/gofiber/fiber/v2"
)

// CourseController serves course and lesson reads from the local replica and
// routes writes through the sync engine, so every change lands locally first
// and queues for uplink.
type CourseController struct {
	Store  *database.Store
	Engine *engine.Engine
}

func NewCourseController(store *database.Store, eng *engine.Engine) *CourseController {
	return &CourseController{Store: store, Engine: eng}
}

// deriveOfflineFlags refreshes each lesson's local-only offline-video flag
// from the blob table. The flag is never trusted from stored or synced data
// on the read path.
func (ctl *CourseController) deriveOfflineFlags(course *models.Course) {
	for i := range course.Lessons {
		has, err := ctl.Store.HasVideo(course.Lessons[i].ID)
		if err != nil {
			log.Printf("Failed to check offline video for lesson %s: %v", course.Lessons[i].ID, err)
			continue
		}
		course.Lessons[i].HasOfflineVideo = has
	}
}

func (ctl *CourseController) GetAllCourses(c *fiber.Ctx) error {
	class, ok := c.Locals("class").(int)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Teachers author across classes and see the whole catalog; students
	// see the courses for their class.
	var courses []models.Course
	var err error
	if c.Locals("role") == models.RoleTeacher {
		courses, err = ctl.Store.AllCourses()
	} else {
		courses, err = ctl.Store.CoursesForClass(class)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	for i := range courses {
		ctl.deriveOfflineFlags(&courses[i])
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
	})
}

func (ctl *CourseController) GetCourse(c *fiber.Ctx) error {
	course, err := ctl.Store.Course(c.Params("id"))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	ctl.deriveOfflineFlags(course)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}

func (ctl *CourseController) SaveCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := ctl.Engine.SaveCourse(models.Course{
		ID:          reqData.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		Icon:        reqData.Icon,
		AuthorID:    userID,
		ForClass:    reqData.ForClass,
		Lessons:     reqData.Lessons,
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course saved successfully!", course)
}

func (ctl *CourseController) DeleteCourse(c *fiber.Ctx) error {
	if err := ctl.Engine.DeleteCourse(c.Params("id")); err != nil {
		if errors.Is(err, engine.ErrCourseNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

func (ctl *CourseController) SaveLesson(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLesson").(*models.Lesson)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lesson, err := ctl.Engine.SaveLesson(c.Params("id"), *reqData)
	if err != nil {
		if errors.Is(err, engine.ErrCourseNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson saved successfully!", lesson)
}

func (ctl *CourseController) DeleteLesson(c *fiber.Ctx) error {
	err := ctl.Engine.DeleteLesson(c.Params("id"), c.Params("lessonId"))
	if err != nil {
		if errors.Is(err, engine.ErrCourseNotFound) || errors.Is(err, engine.ErrLessonNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

// UploadVideo stores an offline video for a lesson. The payload stays in the
// local blob table; videos are never pushed to the remote store.
func (ctl *CourseController) UploadVideo(c *fiber.Ctx, maxSizeMB int64) error {
	file, err := c.FormFile("video")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Video file is required!", nil)
	}
	if file.Size > maxSizeMB*1024*1024 {
		return middleware.JsonResponse(c, fiber.StatusRequestEntityTooLarge, false, "Video file is too large!", nil)
	}

	src, err := file.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read video file!", nil)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read video file!", nil)
	}

	if err := ctl.Engine.SaveVideo(c.Params("id"), c.Params("lessonId"), data); err != nil {
		if errors.Is(err, engine.ErrCourseNotFound) || errors.Is(err, engine.ErrLessonNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store video!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video stored for offline playback!", nil)
}

func (ctl *CourseController) GetVideo(c *fiber.Ctx) error {
	data, err := ctl.Engine.Video(c.Params("lessonId"))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read video!", nil)
	}
	if data == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No offline video for this lesson!", nil)
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.Send(data)
}

func (ctl *CourseController) DeleteVideo(c *fiber.Ctx) error {
	err := ctl.Engine.DeleteVideo(c.Params("id"), c.Params("lessonId"))
	if err != nil {
		if errors.Is(err, engine.ErrCourseNotFound) || errors.Is(err, engine.ErrLessonNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to remove video!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Offline video removed!", nil)
}
