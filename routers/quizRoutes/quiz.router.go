package quizRoutes

import (
	controllers "lms/controllers/quiz"
	"lms/middleware"
	validators "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupQuizRoutes sets up the attempt lifecycle and quiz authoring routes
func SetupQuizRoutes(app *fiber.App, quiz *controllers.Controller, admin *controllers.AdminController) {
	// Quiz listing (capability-gated)
	app.Get("/course/:id/quizzes", middleware.JWTMiddleware, validators.ListQuizzes(), quiz.ListQuizzes)

	quizGroup := app.Group("/quiz")
	quizGroup.Post("/:quiz_id/attempt", middleware.JWTMiddleware, validators.StartAttempt(), quiz.StartAttempt)
	quizGroup.Get("/:quiz_id/attempt/:attempt_id/questions", middleware.JWTMiddleware, validators.GetQuestions(), quiz.GetQuestions)

	attemptGroup := app.Group("/attempt")
	attemptGroup.Post("/:attempt_id/submit", middleware.JWTMiddleware, validators.SubmitAnswers(), quiz.SubmitAnswers)
	attemptGroup.Get("/:attempt_id", middleware.JWTMiddleware, validators.GetAttempt(), quiz.GetAttempt)

	// Authoring and grading
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.RequireRole("ADMIN", "INSTRUCTOR"))
	adminGroup.Post("/course/:course_id/quiz", validators.CreateQuiz(), admin.CreateQuiz)
	adminGroup.Post("/quiz/:quiz_id/question", validators.AddQuestion(), admin.AddQuestion)
	adminGroup.Put("/quiz/:quiz_id/publish", validators.PublishQuiz(), admin.PublishQuiz)
	adminGroup.Post("/attempt/:attempt_id/grade", validators.GradeAttempt(), admin.GradeAttempt)
}
