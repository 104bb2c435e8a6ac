package paymentController

import (
	"log"
	"time"

	"lms/middleware"
	"lms/models"
	enrollmentService "lms/services/enrollment"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Controller consumes payment-succeeded events from the payment provider
type Controller struct {
	db          *gorm.DB
	enrollments *enrollmentService.Service
}

func NewController(db *gorm.DB, enrollments *enrollmentService.Service) *Controller {
	return &Controller{db: db, enrollments: enrollments}
}

// Webhook handles one "payment succeeded" delivery. Deliveries are retried
// by the provider, so duplicates must land on the same enrollment: the
// payment id is unique in the ledger and the enrollment call is idempotent.
func (ctrl *Controller) Webhook(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedPaymentEvent").(*struct {
		UserID    uint    `json:"user_id" validate:"required"`
		CourseID  uint    `json:"course_id" validate:"required"`
		PaymentID string  `json:"payment_id" validate:"required"`
		Gateway   string  `json:"gateway"`
		Amount    float64 `json:"amount"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// Duplicate delivery: acknowledge with the enrollment already granted
	var existing models.PaymentEvent
	if err := ctrl.db.Where("payment_id = ? AND is_deleted = ?", reqData.PaymentID, false).First(&existing).Error; err == nil {
		enrollment, err := ctrl.enrollments.GetByID(existing.EnrollmentID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment already processed!", enrollment)
	}

	// Webhook payloads are not trusted; confirm with the provider first
	if _, err := utils.VerifyPayment(reqData.PaymentID); err != nil {
		log.Printf("Payment verification failed for %s: %v", reqData.PaymentID, err)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment could not be verified!", nil)
	}

	enrollment, err := ctrl.enrollments.EnrollAfterPayment(reqData.UserID, reqData.CourseID)
	if err != nil {
		log.Printf("Failed to enroll after payment %s: %v", reqData.PaymentID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process payment event!", nil)
	}

	event := models.PaymentEvent{
		UserID:       reqData.UserID,
		CourseID:     reqData.CourseID,
		PaymentID:    reqData.PaymentID,
		Gateway:      reqData.Gateway,
		Amount:       reqData.Amount,
		EnrollmentID: enrollment.ID,
		ReceivedAt:   time.Now(),
	}
	if err := ctrl.db.Create(&event).Error; err != nil {
		// The enrollment stands; a racing duplicate took the payment id
		log.Printf("Failed to record payment event %s: %v", reqData.PaymentID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment processed, enrollment granted!", enrollment)
}
