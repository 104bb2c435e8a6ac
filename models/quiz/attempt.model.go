package quiz

import (
	"time"

	"gorm.io/gorm"
)

// Attempt statuses
const (
	AttemptInProgress = "IN_PROGRESS"
	AttemptSubmitted  = "SUBMITTED"
	AttemptGraded     = "GRADED"
)

// Attempt is one student's run through a quiz. EndedAt stays nil until the
// attempt is submitted. The unique index over (user, quiz, attempt_number)
// keeps concurrent starts from exceeding the quiz attempt cap.
type Attempt struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"index:idx_user_quiz_attempt,unique;not null"`
	QuizID        uint       `json:"quiz_id" gorm:"index:idx_user_quiz_attempt,unique;not null"`
	AttemptNumber int        `json:"attempt_number" gorm:"index:idx_user_quiz_attempt,unique;not null"`
	Status        string     `json:"status" gorm:"default:'IN_PROGRESS'"` // IN_PROGRESS, SUBMITTED, GRADED
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	Score         *int       `json:"score"`
	IsDeleted     bool       `gorm:"default:false"`
}

// Answer is one response to one question within an attempt; the unique
// (attempt, question) index enforces it. Rows are written in bulk at
// submission time and never mutated afterward, except that grading fills in
// marks for free-text answers.
type Answer struct {
	gorm.Model
	AttemptID  uint   `json:"attempt_id" gorm:"index:idx_attempt_question,unique;not null"`
	QuestionID uint   `json:"question_id" gorm:"index:idx_attempt_question,unique;not null"`
	ChoiceID   *uint  `json:"choice_id"`
	AnswerText string `json:"answer_text" gorm:"type:text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Marks      int    `json:"marks" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}
