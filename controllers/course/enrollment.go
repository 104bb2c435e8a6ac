package controllers

import (
	"errors"

	"lms/middleware"
	enrollmentService "lms/services/enrollment"

	"github.com/gofiber/fiber/v2"
)

// EnrollmentController exposes the enrollment ledger over HTTP
type EnrollmentController struct {
	enrollments *enrollmentService.Service
}

func NewEnrollmentController(enrollments *enrollmentService.Service) *EnrollmentController {
	return &EnrollmentController{enrollments: enrollments}
}

// EnrollFree enrolls the caller into a free course
func (ctrl *EnrollmentController) EnrollFree(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	enrollment, err := ctrl.enrollments.EnrollFree(userID, uint(courseID))
	if err != nil {
		switch {
		case errors.Is(err, enrollmentService.ErrCourseNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
		case errors.Is(err, enrollmentService.ErrCourseNotFree):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not free!", nil)
		case errors.Is(err, enrollmentService.ErrAlreadyEnrolled):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", enrollment)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// GetEnrollments lists the caller's enrollments with pagination
func (ctrl *EnrollmentController) GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedEnrollmentList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})

	page, limit := 1, 10
	if ok {
		page = *reqData.Page
		limit = *reqData.Limit
	}

	enrollments, total, err := ctrl.enrollments.ListByUser(userID, page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	response := map[string]interface{}{
		"enrollments": enrollments,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", response)
}

// UpdateEnrollmentStatus is the administrative override for enrollment state
func (ctrl *EnrollmentController) UpdateEnrollmentStatus(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(int)

	reqData, ok := c.Locals("validatedEnrollmentStatus").(*struct {
		Status        string `json:"status" validate:"required,oneof=ACTIVE COMPLETED DROPPED"`
		AccessGranted *bool  `json:"access_granted" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	enrollment, err := ctrl.enrollments.UpdateStatus(uint(enrollmentID), reqData.Status, *reqData.AccessGranted)
	if err != nil {
		if errors.Is(err, enrollmentService.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update enrollment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment updated successfully!", enrollment)
}
