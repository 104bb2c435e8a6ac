package controllers

import (
	"lms/middleware"
	"lms/models"
	"lms/services/capability"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LessonController delivers lesson content behind the capability check
type LessonController struct {
	db     *gorm.DB
	tokens *capability.Service
}

func NewLessonController(db *gorm.DB, tokens *capability.Service) *LessonController {
	return &LessonController{db: db, tokens: tokens}
}

// GetLesson returns one lesson's content. The caller must present the
// enrollment id its capability token was minted for.
func (ctrl *LessonController) GetLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	lessonID := c.Locals("lessonID").(int)
	enrollmentID := c.Locals("enrollmentID").(int)

	// Capability check gates all paid content
	if res := ctrl.tokens.Verify(userID, uint(courseID), uint(enrollmentID)); !res.Valid {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", res)
	}

	var lesson models.Lesson
	if err := ctrl.db.Where("id = ? AND course_id = ? AND is_deleted = ? AND is_published = ?", lessonID, courseID, false, true).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson fetched successfully!", lesson)
}

// GetCourseLessons lists a course's published lessons behind the same check
func (ctrl *LessonController) GetCourseLessons(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	enrollmentID := c.Locals("enrollmentID").(int)

	if res := ctrl.tokens.Verify(userID, uint(courseID), uint(enrollmentID)); !res.Valid {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", res)
	}

	var lessons []models.Lesson
	if err := ctrl.db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("order_index asc").Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons fetched successfully!", lessons)
}
