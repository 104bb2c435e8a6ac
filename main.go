package main

import (
	"lms/config"
	authController "lms/controllers/auth"
	courseControllers "lms/controllers/course"
	paymentController "lms/controllers/payment"
	quizControllers "lms/controllers/quiz"
	"lms/database"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	paymentRoutes "lms/routers/paymentRoutes"
	quizRoutes "lms/routers/quizRoutes"
	attemptService "lms/services/attempt"
	"lms/services/capability"
	enrollmentService "lms/services/enrollment"
	progressService "lms/services/progress"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"log"
)

func main() {
	config.LoadConfig()
	db := database.Connect()

	tokens := capability.NewService(db, config.AppConfig.TokenKey, config.AppConfig.TokenTTLHours)
	enrollments := enrollmentService.NewService(db, tokens)
	attempts := attemptService.NewService(db, tokens)
	progress := progressService.NewService(db)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app, authController.NewController(db))
	courseRoutes.SetupCourseRoutes(app,
		courseControllers.NewEnrollmentController(enrollments),
		courseControllers.NewLessonController(db, tokens),
		courseControllers.NewProgressController(progress))
	quizRoutes.SetupQuizRoutes(app,
		quizControllers.NewController(attempts),
		quizControllers.NewAdminController(db, attempts))
	paymentRoutes.SetupPaymentRoutes(app, paymentController.NewController(db, enrollments))

	utils.InitializeAttemptScheduler(attempts)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
