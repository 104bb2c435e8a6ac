package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentDropped   = "DROPPED"
)

// Enrollment tracks a user's relationship to a course, including the
// capability token issued for paid access. At most one access-granted
// enrollment may exist per (user, course) pair.
type Enrollment struct {
	gorm.Model
	UserID          uint      `json:"user_id" gorm:"index:idx_user_course,unique;not null"`
	CourseID        uint      `json:"course_id" gorm:"index:idx_user_course,unique;not null"`
	Status          string    `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, COMPLETED, DROPPED
	AccessGranted   bool      `json:"access_granted" gorm:"default:false"`
	CapabilityToken string    `json:"-" gorm:"type:text"` // signed, opaque; empty until issued
	EnrolledAt      time.Time `json:"enrolled_at"`
	IsDeleted       bool      `gorm:"default:false"`
}
