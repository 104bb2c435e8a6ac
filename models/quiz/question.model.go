package quiz

import "gorm.io/gorm"

// Question types
const (
	QuestionMCQ       = "MCQ"
	QuestionTrueFalse = "TRUE_FALSE"
	QuestionFreeText  = "FREE_TEXT"
)

// Question is authored quiz content. MCQ and TRUE_FALSE questions own an
// ordered set of choices with exactly one marked correct; FREE_TEXT questions
// have no choices and are graded by an instructor.
type Question struct {
	gorm.Model
	QuizID       uint   `json:"quiz_id" gorm:"index;not null"`
	QuestionType string `json:"question_type" gorm:"default:'MCQ'"` // MCQ, TRUE_FALSE, FREE_TEXT
	Text         string `json:"text" gorm:"type:text"`
	Marks        int    `json:"marks" gorm:"default:1"`
	OrderIndex   int    `json:"order_index" gorm:"default:0"`
	IsDeleted    bool   `gorm:"default:false"`
}

// AutoGradable reports whether correctness can be derived from the authored
// correct choice without instructor input.
func (q Question) AutoGradable() bool {
	return q.QuestionType == QuestionMCQ || q.QuestionType == QuestionTrueFalse
}

// Choice is one option of a choice-based question
type Choice struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	ChoiceText string `json:"choice_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}
