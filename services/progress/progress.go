package progress

import (
	"errors"
	"math"
	"time"

	"lms/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotEnrolled    = errors.New("not enrolled")
	ErrLessonNotFound = errors.New("lesson not found")
)

// Service derives per-lesson completion and rolls it into a per-course
// percentage. Only this service writes progress rows.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// LessonProgress is the result of marking a lesson
type LessonProgress struct {
	Lesson  models.Progress `json:"lesson_progress"`
	Overall models.Progress `json:"overall_progress"`
}

// CourseProgressItem summarizes one enrolled course for a user
type CourseProgressItem struct {
	CourseID        uint   `json:"course_id"`
	CourseTitle     string `json:"course_title"`
	Percentage      int    `json:"percentage"`
	Completed       bool   `json:"completed"`
	LastLessonTitle string `json:"last_lesson_title"`
}

// MarkLesson upserts the lesson-level record and then recomputes the
// course-level rollup from scratch. The total lesson count is read fresh
// each time so the percentage never drifts when lessons are added or
// removed after some were marked complete.
func (s *Service) MarkLesson(userID, courseID, lessonID uint, completed bool) (*LessonProgress, error) {
	var enrollment models.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return nil, ErrNotEnrolled
	}

	var lesson models.Lesson
	if err := s.db.Where("id = ? AND course_id = ? AND is_deleted = ?", lessonID, courseID, false).First(&lesson).Error; err != nil {
		return nil, ErrLessonNotFound
	}

	var record models.Progress
	var rollup models.Progress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		err := tx.Where("user_id = ? AND course_id = ? AND lesson_id = ? AND is_deleted = ?", userID, courseID, lessonID, false).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = models.Progress{
				UserID:         userID,
				CourseID:       courseID,
				LessonID:       &lessonID,
				Completed:      completed,
				LastAccessedAt: now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			record.Completed = completed
			record.LastAccessedAt = now
			if err := tx.Save(&record).Error; err != nil {
				return err
			}
		}

		var err2 error
		rollup, err2 = s.recomputeRollup(tx, userID, courseID)
		return err2
	})
	if err != nil {
		return nil, err
	}

	return &LessonProgress{Lesson: record, Overall: rollup}, nil
}

// recomputeRollup rebuilds the single course-level row from the ratio of
// completed lesson records to the course's current lesson count. It is a
// full recomputation, never an incremental delta.
func (s *Service) recomputeRollup(tx *gorm.DB, userID, courseID uint) (models.Progress, error) {
	var totalLessons int64
	if err := tx.Model(&models.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Count(&totalLessons).Error; err != nil {
		return models.Progress{}, err
	}

	var completedLessons int64
	if err := tx.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND lesson_id IS NOT NULL AND completed = ? AND is_deleted = ?", userID, courseID, true, false).
		Count(&completedLessons).Error; err != nil {
		return models.Progress{}, err
	}

	percentage := 0
	if totalLessons > 0 {
		percentage = int(math.Round(100 * float64(completedLessons) / float64(totalLessons)))
	}

	// Upsert against the partial rollup index so two racing recomputes
	// converge on the same row instead of inserting twice.
	now := time.Now()
	rollup := models.Progress{
		UserID:         userID,
		CourseID:       courseID,
		Percentage:     percentage,
		Completed:      percentage == 100,
		LastAccessedAt: now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{gorm.Expr("lesson_id IS NULL")}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"percentage":       percentage,
			"completed":        percentage == 100,
			"last_accessed_at": now,
		}),
	}).Create(&rollup).Error
	if err != nil {
		return models.Progress{}, err
	}

	// Re-read into a fresh value; after a conflict-update the insert id on
	// the struct is not the surviving row's id.
	var saved models.Progress
	if err := tx.Where("user_id = ? AND course_id = ? AND lesson_id IS NULL AND is_deleted = ?", userID, courseID, false).First(&saved).Error; err != nil {
		return models.Progress{}, err
	}
	return saved, nil
}

// CourseProgress returns, for every course the user is enrolled in, the
// current percentage, completion flag and the most recently accessed lesson
// title.
func (s *Service) CourseProgress(userID uint) ([]CourseProgressItem, error) {
	var enrollments []models.Enrollment
	if err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).Find(&enrollments).Error; err != nil {
		return nil, err
	}

	items := make([]CourseProgressItem, 0, len(enrollments))
	for _, e := range enrollments {
		item := CourseProgressItem{CourseID: e.CourseID}

		var course models.Course
		if err := s.db.Where("id = ?", e.CourseID).First(&course).Error; err == nil {
			item.CourseTitle = course.Title
		}

		var rollup models.Progress
		if err := s.db.Where("user_id = ? AND course_id = ? AND lesson_id IS NULL AND is_deleted = ?", userID, e.CourseID, false).First(&rollup).Error; err == nil {
			item.Percentage = rollup.Percentage
			item.Completed = rollup.Completed
		}

		// Latest-accessed lesson record carries the "last lesson" title
		var latest models.Progress
		err := s.db.Where("user_id = ? AND course_id = ? AND lesson_id IS NOT NULL AND is_deleted = ?", userID, e.CourseID, false).
			Order("last_accessed_at desc").First(&latest).Error
		if err == nil && latest.LessonID != nil {
			var lesson models.Lesson
			if err := s.db.Where("id = ?", *latest.LessonID).First(&lesson).Error; err == nil {
				item.LastLessonTitle = lesson.Title
			}
		}

		items = append(items, item)
	}
	return items, nil
}
