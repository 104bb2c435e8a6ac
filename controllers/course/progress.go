package controllers

import (
	"errors"

	"lms/middleware"
	progressService "lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// ProgressController exposes lesson completion and the course rollup
type ProgressController struct {
	progress *progressService.Service
}

func NewProgressController(progress *progressService.Service) *ProgressController {
	return &ProgressController{progress: progress}
}

// MarkLesson marks one lesson complete or incomplete and returns the
// recomputed course percentage.
func (ctrl *ProgressController) MarkLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	lessonID := c.Locals("lessonID").(int)

	reqData, ok := c.Locals("validatedMarkLesson").(*struct {
		Completed *bool `json:"completed" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := ctrl.progress.MarkLesson(userID, uint(courseID), uint(lessonID), *reqData.Completed)
	if err != nil {
		switch {
		case errors.Is(err, progressService.ErrNotEnrolled):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
		case errors.Is(err, progressService.ErrLessonNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", fiber.Map{
		"lesson_progress":    result.Lesson,
		"overall_percentage": result.Overall.Percentage,
		"course_completed":   result.Overall.Completed,
	})
}

// GetCourseProgress returns the rollup for every course the caller is
// enrolled in.
func (ctrl *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	items, err := ctrl.progress.CourseProgress(userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", items)
}
