package models

import (
	"time"

	"gorm.io/gorm"
)

// Progress stores both per-lesson completion records and the per-course
// rollup. A lesson-level record has LessonID set; the single rollup row per
// (user, course) has LessonID NULL and carries the recomputed percentage.
// NULL lesson ids compare as distinct, so rollup uniqueness needs its own
// partial index.
type Progress struct {
	gorm.Model
	UserID         uint      `json:"user_id" gorm:"index:idx_user_course_lesson,unique;index:idx_user_course_rollup,unique,where:lesson_id IS NULL;not null"`
	CourseID       uint      `json:"course_id" gorm:"index:idx_user_course_lesson,unique;index:idx_user_course_rollup,unique,where:lesson_id IS NULL;not null"`
	LessonID       *uint     `json:"lesson_id" gorm:"index:idx_user_course_lesson,unique"`
	Completed      bool      `json:"completed" gorm:"default:false"`
	Percentage     int       `json:"percentage" gorm:"default:0"` // rollup rows only
	LastAccessedAt time.Time `json:"last_accessed_at"`
	IsDeleted      bool      `gorm:"default:false"`
}
