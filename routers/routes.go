package routers

import (
	"coursesync/config"
	courseControllers "coursesync/controllers/course"
	progressControllers "coursesync/controllers/progress"
	syncControllers "coursesync/controllers/sync"
	"coursesync/database"
	"coursesync/engine"
	"coursesync/middleware"
	courseValidator "coursesync/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires the HTTP surface consumed by the presentation layer.
// Reads hit the local replica; writes go through the sync engine.
func SetupRoutes(app *fiber.App, store *database.Store, eng *engine.Engine) {
	courseCtl := courseControllers.NewCourseController(store, eng)
	progressCtl := progressControllers.NewProgressController(store, eng)
	syncCtl := syncControllers.NewSyncController(eng)

	courseGroup := app.Group("/course")
	courseGroup.Get("/list", middleware.JWTMiddleware, courseCtl.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, courseCtl.GetCourse)
	courseGroup.Post("/", middleware.JWTMiddleware, middleware.RequireTeacher, courseValidator.SaveCourse(), courseCtl.SaveCourse)
	courseGroup.Delete("/:id", middleware.JWTMiddleware, middleware.RequireTeacher, courseCtl.DeleteCourse)

	courseGroup.Post("/:id/lesson", middleware.JWTMiddleware, middleware.RequireTeacher, courseValidator.SaveLesson(), courseCtl.SaveLesson)
	courseGroup.Delete("/:id/lesson/:lessonId", middleware.JWTMiddleware, middleware.RequireTeacher, courseCtl.DeleteLesson)

	courseGroup.Post("/:id/lesson/:lessonId/video", middleware.JWTMiddleware, middleware.RequireTeacher, func(c *fiber.Ctx) error {
		return courseCtl.UploadVideo(c, config.AppConfig.MaxVideoSizeMB)
	})
	courseGroup.Get("/:id/lesson/:lessonId/video", middleware.JWTMiddleware, courseCtl.GetVideo)
	courseGroup.Delete("/:id/lesson/:lessonId/video", middleware.JWTMiddleware, courseCtl.DeleteVideo)

	progressGroup := app.Group("/progress")
	progressGroup.Post("/attempt", middleware.JWTMiddleware, courseValidator.QuizAttempt(), progressCtl.RecordQuizAttempt)
	progressGroup.Get("/me", middleware.JWTMiddleware, progressCtl.GetMyProgress)
	progressGroup.Get("/class", middleware.JWTMiddleware, middleware.RequireTeacher, progressCtl.GetClassProgress)

	syncGroup := app.Group("/sync")
	syncGroup.Post("/connectivity", middleware.JWTMiddleware, syncCtl.SetConnectivity)
	syncGroup.Post("/trigger", middleware.JWTMiddleware, syncCtl.TriggerSync)
	syncGroup.Get("/status", middleware.JWTMiddleware, syncCtl.GetStatus)
	syncGroup.Delete("/queue/:id", middleware.JWTMiddleware, syncCtl.DiscardQueueItem)
}
