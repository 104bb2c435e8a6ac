package authRoutes

import (
	authController "lms/controllers/auth"
	validators "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes sets up signup and login routes
func SetupAuthRoutes(app *fiber.App, ctrl *authController.Controller) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", validators.Signup(), ctrl.Signup)
	authGroup.Post("/login", validators.Login(), ctrl.Login)
}
