package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentEvent records one "payment succeeded" delivery from the payment
// provider. PaymentID is unique so duplicate webhook deliveries collide here
// instead of producing a second enrollment.
type PaymentEvent struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	CourseID     uint      `json:"course_id" gorm:"index;not null"`
	PaymentID    string    `json:"payment_id" gorm:"unique;not null"`
	Gateway      string    `json:"gateway"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status" gorm:"default:'CONFIRMED'"`
	EnrollmentID uint      `json:"enrollment_id" gorm:"index"`
	ReceivedAt   time.Time `json:"received_at"`
	IsDeleted    bool      `gorm:"default:false"`
}
