package controllers

import (
	"errors"

	"lms/middleware"
	"lms/models"
	quizModels "lms/models/quiz"
	attemptService "lms/services/attempt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminController covers quiz authoring and instructor grading
type AdminController struct {
	db       *gorm.DB
	attempts *attemptService.Service
}

func NewAdminController(db *gorm.DB, attempts *attemptService.Service) *AdminController {
	return &AdminController{db: db, attempts: attempts}
}

// CreateQuiz creates an unpublished quiz under a course
func (ctrl *AdminController) CreateQuiz(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedCreateQuiz").(*struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		MaxAttempts int    `json:"max_attempts" validate:"required,min=1"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course models.Course
	if err := ctrl.db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	quiz := quizModels.Quiz{
		CourseID:    uint(courseID),
		Title:       reqData.Title,
		Description: reqData.Description,
		MaxAttempts: reqData.MaxAttempts,
	}

	if err := ctrl.db.Create(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", quiz)
}

// AddQuestion adds one question to a quiz. Choice-based questions carry
// their choices in the same request with exactly one marked correct.
func (ctrl *AdminController) AddQuestion(c *fiber.Ctx) error {
	quizID := c.Locals("quizID").(int)

	reqData, ok := c.Locals("validatedAddQuestion").(*struct {
		QuestionType string `json:"question_type" validate:"required,oneof=MCQ TRUE_FALSE FREE_TEXT"`
		Text         string `json:"text" validate:"required"`
		Marks        int    `json:"marks" validate:"required,min=1"`
		OrderIndex   int    `json:"order_index"`
		Choices      []struct {
			ChoiceText string `json:"choice_text" validate:"required"`
			IsCorrect  bool   `json:"is_correct"`
		} `json:"choices" validate:"dive"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var quiz quizModels.Quiz
	if err := ctrl.db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	question := quizModels.Question{
		QuizID:       uint(quizID),
		QuestionType: reqData.QuestionType,
		Text:         reqData.Text,
		Marks:        reqData.Marks,
		OrderIndex:   reqData.OrderIndex,
	}

	tx := ctrl.db.Begin()
	if err := tx.Create(&question).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	for i, choice := range reqData.Choices {
		row := quizModels.Choice{
			QuestionID: question.ID,
			ChoiceText: choice.ChoiceText,
			IsCorrect:  choice.IsCorrect,
			OrderIndex: i,
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create choices!", nil)
		}
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added successfully!", question)
}

// PublishQuiz makes a quiz visible to enrolled students
func (ctrl *AdminController) PublishQuiz(c *fiber.Ctx) error {
	quizID := c.Locals("quizID").(int)

	var quiz quizModels.Quiz
	if err := ctrl.db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	quiz.IsPublished = true
	if err := ctrl.db.Save(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz published successfully!", quiz)
}

// GradeAttempt applies instructor marks to a submitted attempt
func (ctrl *AdminController) GradeAttempt(c *fiber.Ctx) error {
	attemptID := c.Locals("attemptID").(int)

	reqData, ok := c.Locals("validatedGradeAttempt").(*struct {
		Marks map[uint]int `json:"marks" validate:"required"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	attempt, err := ctrl.attempts.Grade(uint(attemptID), reqData.Marks)
	if err != nil {
		switch {
		case errors.Is(err, attemptService.ErrAttemptNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
		case errors.Is(err, attemptService.ErrInvalidAttempt):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Attempt has not been submitted yet!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to grade attempt!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt graded successfully!", attempt)
}
