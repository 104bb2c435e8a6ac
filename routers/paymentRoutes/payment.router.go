package paymentRoutes

import (
	paymentController "lms/controllers/payment"
	validators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up the payment provider webhook. There is no user
// session here; deliveries are confirmed against the provider's API before
// any enrollment is granted.
func SetupPaymentRoutes(app *fiber.App, ctrl *paymentController.Controller) {
	paymentGroup := app.Group("/payment")

	paymentGroup.Post("/webhook", validators.PaymentEvent(), ctrl.Webhook)
}
