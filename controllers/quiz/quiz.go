package controllers

import (
	"errors"

	"lms/middleware"
	attemptService "lms/services/attempt"

	"github.com/gofiber/fiber/v2"
)

// Controller exposes the quiz attempt lifecycle to students
type Controller struct {
	attempts *attemptService.Service
}

func NewController(attempts *attemptService.Service) *Controller {
	return &Controller{attempts: attempts}
}

// ListQuizzes returns a course's published quizzes behind the capability check
func (ctrl *Controller) ListQuizzes(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	enrollmentID := c.Locals("enrollmentID").(int)

	quizzes, err := ctrl.attempts.ListQuizzes(userID, uint(courseID), uint(enrollmentID))
	if err != nil {
		if errors.Is(err, attemptService.ErrAccessDenied) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quizzes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quizzes fetched successfully!", quizzes)
}

// StartAttempt opens a new attempt at a quiz
func (ctrl *Controller) StartAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(int)

	reqData, ok := c.Locals("validatedStartAttempt").(*struct {
		CourseID     uint `json:"course_id" validate:"required"`
		EnrollmentID uint `json:"enrollment_id" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	attempt, err := ctrl.attempts.Start(userID, uint(quizID), reqData.CourseID, reqData.EnrollmentID)
	if err != nil {
		switch {
		case errors.Is(err, attemptService.ErrAccessDenied):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
		case errors.Is(err, attemptService.ErrQuizNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found or not published!", nil)
		case errors.Is(err, attemptService.ErrAttemptLimitReached):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt limit reached for this quiz!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start attempt!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt started successfully!", attempt)
}

// GetQuestions returns a page of questions for an in-progress attempt,
// choices stripped of correctness.
func (ctrl *Controller) GetQuestions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(int)
	attemptID := c.Locals("attemptID").(int)
	courseID := c.Locals("courseID").(int)
	enrollmentID := c.Locals("enrollmentID").(int)
	page := c.Locals("page").(int)
	limit := c.Locals("limit").(int)

	questions, total, err := ctrl.attempts.Questions(userID, uint(quizID), uint(courseID), uint(enrollmentID), uint(attemptID), page, limit)
	if err != nil {
		switch {
		case errors.Is(err, attemptService.ErrAccessDenied):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
		case errors.Is(err, attemptService.ErrInvalidAttempt):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch questions!", nil)
		}
	}

	response := map[string]interface{}{
		"questions": questions,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Questions fetched successfully!", response)
}

// SubmitAnswers records the answer batch and closes the attempt
func (ctrl *Controller) SubmitAnswers(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	attemptID := c.Locals("attemptID").(int)

	reqData, ok := c.Locals("validatedSubmitAnswers").(*struct {
		Answers []attemptService.AnswerInput `json:"answers" validate:"required,min=1,dive"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	attempt, err := ctrl.attempts.Submit(userID, uint(attemptID), reqData.Answers)
	if err != nil {
		switch {
		case errors.Is(err, attemptService.ErrAttemptNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
		case errors.Is(err, attemptService.ErrUnauthorized):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this attempt!", nil)
		case errors.Is(err, attemptService.ErrInvalidAttempt):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt or answers!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit answers!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Answers submitted!", attempt)
}

// GetAttempt returns one of the caller's attempts with its score
func (ctrl *Controller) GetAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	attemptID := c.Locals("attemptID").(int)

	attempt, err := ctrl.attempts.GetAttempt(userID, uint(attemptID))
	if err != nil {
		switch {
		case errors.Is(err, attemptService.ErrAttemptNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
		case errors.Is(err, attemptService.ErrUnauthorized):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this attempt!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempt!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt fetched successfully!", attempt)
}
