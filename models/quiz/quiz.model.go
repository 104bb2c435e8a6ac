package quiz

import "gorm.io/gorm"

// Quiz belongs to a course and caps how many attempts a student may make
type Quiz struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MaxAttempts int    `json:"max_attempts" gorm:"default:1"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}
