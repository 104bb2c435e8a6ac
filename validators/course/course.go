package courseValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// paramID parses one positive integer route parameter into Locals
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

// queryID parses one positive integer query parameter into Locals
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

func EnrollCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "id", "courseID"); !ok {
			return err
		}
		return c.Next()
	}
}

func GetUserEnrollments() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		})

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		// Validate Page
		if reqData.Page == nil || *reqData.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}

		// Validate Limit
		if reqData.Limit == nil || *reqData.Limit < 1 {
			errors["limit"] = "Limit must be greater than 0!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedEnrollmentList", reqData)
		return c.Next()
	}
}

func UpdateEnrollmentStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "id", "enrollmentID"); !ok {
			return err
		}

		reqData := new(struct {
			Status        string `json:"status" validate:"required,oneof=ACTIVE COMPLETED DROPPED"`
			AccessGranted *bool  `json:"access_granted" validate:"required"`
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

		c.Locals("validatedEnrollmentStatus", reqData)
		return c.Next()
	}
}

// GetLesson validates course/lesson route params plus the enrollment id the
// capability token was minted for.
func GetLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "course_id", "courseID"); !ok {
			return err
		}
		if ok, err := paramID(c, "lesson_id", "lessonID"); !ok {
			return err
		}
		if ok, err := queryID(c, "enrollment_id", "enrollmentID"); !ok {
			return err
		}
		return c.Next()
	}
}

func GetCourseLessons() fiber.Handler {
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

func MarkLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := paramID(c, "course_id", "courseID"); !ok {
			return err
		}
		if ok, err := paramID(c, "lesson_id", "lessonID"); !ok {
			return err
		}

		reqData := new(struct {
			Completed *bool `json:"completed" validate:"required"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"completed": "Completed flag is required!"})
		}

		c.Locals("validatedMarkLesson", reqData)
		return c.Next()
	}
}
