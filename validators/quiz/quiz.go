package quizValidator

import (
	"strconv"
	"strings"

	"lms/middleware"
	attemptService "lms/services/attempt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func paramID(c *fiber.Ctx, param, local string) (bool, error) {
	idStr := strings.TrimSpace(c.Params(param))
	if idStr == "" {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing "+param+" parameter!", nil)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+param+" parameter!", nil)
	}
	c.Locals(local, id)
	return true, nil
}

func queryID(c *fiber.Ctx, param, local string) (bool, error) {
	idStr := strings.TrimSpace(c.Query(param))
	if idStr == "" {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing "+param+" query parameter!", nil)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return false, middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+param+" query parameter!", nil)
	}
	c.Locals(local, id)
	return true, nil
}

func ListQuizzes() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "id", "courseID"); !ok {
			return err
		}
		if ok, err := queryID(c, "enrollment_id", "enrollmentID"); !ok {
			return err
		}
		return c.Next()
	}
}

func StartAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "quiz_id", "quizID"); !ok {
			return err
		}

		reqData := new(struct {
			CourseID     uint `json:"course_id" validate:"required"`
			EnrollmentID uint `json:"enrollment_id" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Failed validation: " + fieldErr.Tag()
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStartAttempt", reqData)
		return c.Next()
	}
}

func GetQuestions() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "quiz_id", "quizID"); !ok {
			return err
		}
		if ok, err := paramID(c, "attempt_id", "attemptID"); !ok {
			return err
		}
		if ok, err := queryID(c, "course_id", "courseID"); !ok {
			return err
		}
		if ok, err := queryID(c, "enrollment_id", "enrollmentID"); !ok {
			return err
		}

		// Pagination defaults
		page := 1
		limit := 10
		if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
			page = p
		}
		if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
			limit = l
		}
		c.Locals("page", page)
		c.Locals("limit", limit)

		return c.Next()
	}
}

func SubmitAnswers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "attempt_id", "attemptID"); !ok {
			return err
		}

		reqData := new(struct {
			Answers []attemptService.AnswerInput `json:"answers" validate:"required,min=1,dive"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"answers": "At least one answer is required!"})
		}

		// Every answer needs either a selected choice or free text
		for _, answer := range reqData.Answers {
			if answer.QuestionID == 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{"answers": "Each answer needs a question id!"})
			}
			if answer.ChoiceID == nil && strings.TrimSpace(answer.AnswerText) == "" {
				return middleware.ValidationErrorResponse(c, map[string]string{"answers": "Each answer needs a choice or answer text!"})
			}
		}

		c.Locals("validatedSubmitAnswers", reqData)
		return c.Next()
	}
}

func GetAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "attempt_id", "attemptID"); !ok {
			return err
		}
		return c.Next()
	}
}

func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "course_id", "courseID"); !ok {
			return err
		}

		reqData := new(struct {
			Title       string `json:"title" validate:"required"`
			Description string `json:"description"`
			MaxAttempts int    `json:"max_attempts" validate:"required,min=1"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Failed validation: " + fieldErr.Tag()
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCreateQuiz", reqData)
		return c.Next()
	}
}

func AddQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "quiz_id", "quizID"); !ok {
			return err
		}

		reqData := new(struct {
			QuestionType string `json:"question_type" validate:"required,oneof=MCQ TRUE_FALSE FREE_TEXT"`
			Text         string `json:"text" validate:"required"`
			Marks        int    `json:"marks" validate:"required,min=1"`
			OrderIndex   int    `json:"order_index"`
			Choices      []struct {
				ChoiceText string `json:"choice_text" validate:"required"`
				IsCorrect  bool   `json:"is_correct"`
			} `json:"choices" validate:"dive"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[fieldErr.Field()] = "Failed validation: " + fieldErr.Tag()
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		// Choice-based questions need choices with exactly one marked
		// correct; free-text questions take none.
		correctCount := 0
		for _, choice := range reqData.Choices {
			if choice.IsCorrect {
				correctCount++
			}
		}
		switch reqData.QuestionType {
		case "FREE_TEXT":
			if len(reqData.Choices) > 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{"choices": "Free-text questions cannot have choices!"})
			}
		case "TRUE_FALSE":
			if len(reqData.Choices) != 2 || correctCount != 1 {
				return middleware.ValidationErrorResponse(c, map[string]string{"choices": "True/false questions need exactly two choices with one marked correct!"})
			}
		default:
			if len(reqData.Choices) < 2 || correctCount != 1 {
				return middleware.ValidationErrorResponse(c, map[string]string{"choices": "MCQ questions need at least two choices with exactly one marked correct!"})
			}
		}

		c.Locals("validatedAddQuestion", reqData)
		return c.Next()
	}
}

func PublishQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "quiz_id", "quizID"); !ok {
			return err
		}
		return c.Next()
	}
}

func GradeAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "attempt_id", "attemptID"); !ok {
			return err
		}

		reqData := new(struct {
			Marks map[uint]int `json:"marks" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"marks": "Marks are required!"})
		}

		for _, m := range reqData.Marks {
			if m < 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{"marks": "Marks cannot be negative!"})
			}
		}

		c.Locals("validatedGradeAttempt", reqData)
		return c.Next()
	}
}
