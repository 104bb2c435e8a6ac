package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up enrollment, lesson delivery and progress routes
func SetupCourseRoutes(app *fiber.App, enrollments *controllers.EnrollmentController, lessons *controllers.LessonController, progress *controllers.ProgressController) {
	courseGroup := app.Group("/course")

	// Free enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollCourse(), enrollments.EnrollFree)

	// Lesson delivery (capability-gated)
	courseGroup.Get("/:id/lessons", middleware.JWTMiddleware, validators.GetCourseLessons(), lessons.GetCourseLessons)
	courseGroup.Get("/:course_id/lesson/:lesson_id", middleware.JWTMiddleware, validators.GetLesson(), lessons.GetLesson)

	// Lesson completion and rollup
	courseGroup.Post("/:course_id/lesson/:lesson_id/progress", middleware.JWTMiddleware, validators.MarkLesson(), progress.MarkLesson)

	// User-level views
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, validators.GetUserEnrollments(), enrollments.GetEnrollments)
	userGroup.Get("/progress", middleware.JWTMiddleware, progress.GetCourseProgress)

	// Administrative override
	adminGroup := app.Group("/admin")
	adminGroup.Put("/enrollment/:id/status",
		middleware.JWTMiddleware,
		middleware.RequireRole("ADMIN", "INSTRUCTOR"),
		validators.UpdateEnrollmentStatus(),
		enrollments.UpdateEnrollmentStatus,
	)
}
