package attempt

import (
	"database/sql"
	"errors"
	"time"

	quizModels "lms/models/quiz"
	"lms/services/capability"

	"gorm.io/gorm"
)

var (
	ErrAccessDenied        = errors.New("access denied")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	ErrInvalidAttempt      = errors.New("invalid attempt")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrUnauthorized        = errors.New("unauthorized")
)

// Service runs the quiz attempt lifecycle: start, question delivery,
// submission and grading. Only this service writes attempt and answer rows.
type Service struct {
	db     *gorm.DB
	tokens *capability.Service
}

func NewService(db *gorm.DB, tokens *capability.Service) *Service {
	return &Service{db: db, tokens: tokens}
}

// AnswerInput is one submitted response: a selected choice for choice-based
// questions, free text otherwise.
type AnswerInput struct {
	QuestionID uint   `json:"question_id"`
	ChoiceID   *uint  `json:"choice_id"`
	AnswerText string `json:"answer_text"`
}

// ChoiceView is a choice as delivered to students, without the correctness flag
type ChoiceView struct {
	ID         uint   `json:"id"`
	ChoiceText string `json:"choice_text"`
}

// QuestionView is a question as delivered to students mid-attempt
type QuestionView struct {
	ID           uint         `json:"id"`
	QuestionType string       `json:"question_type"`
	Text         string       `json:"text"`
	Marks        int          `json:"marks"`
	Choices      []ChoiceView `json:"choices,omitempty"`
}

// ListQuizzes returns the published quizzes of a course. The capability
// check gates quiz visibility the same as content delivery.
func (s *Service) ListQuizzes(userID, courseID, enrollmentID uint) ([]quizModels.Quiz, error) {
	if res := s.tokens.Verify(userID, courseID, enrollmentID); !res.Valid {
		return nil, ErrAccessDenied
	}

	var quizzes []quizModels.Quiz
	err := s.db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("created_at asc").Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

// Start opens a new attempt. The count check and insert run inside one
// serializable transaction so two concurrent starts cannot both squeeze past
// the limit; the unique (user, quiz, attempt_number) index backs that up.
func (s *Service) Start(userID, quizID, courseID, enrollmentID uint) (*quizModels.Attempt, error) {
	if res := s.tokens.Verify(userID, courseID, enrollmentID); !res.Valid {
		return nil, ErrAccessDenied
	}

	var quiz quizModels.Quiz
	if err := s.db.Where("id = ? AND course_id = ? AND is_deleted = ? AND is_published = ?", quizID, courseID, false, true).First(&quiz).Error; err != nil {
		return nil, ErrQuizNotFound
	}

	attempt := quizModels.Attempt{
		UserID:    userID,
		QuizID:    quizID,
		Status:    quizModels.AttemptInProgress,
		StartedAt: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&quizModels.Attempt{}).
			Where("user_id = ? AND quiz_id = ? AND is_deleted = ?", userID, quizID, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(quiz.MaxAttempts) {
			return ErrAttemptLimitReached
		}
		attempt.AttemptNumber = int(count) + 1
		return tx.Create(&attempt).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		if errors.Is(err, ErrAttemptLimitReached) {
			return nil, ErrAttemptLimitReached
		}
		return nil, err
	}
	return &attempt, nil
}

// Questions returns a page of the quiz's questions for in-progress
// consumption. Choices come back without the correctness flag.
func (s *Service) Questions(userID, quizID, courseID, enrollmentID, attemptID uint, page, limit int) ([]QuestionView, int64, error) {
	if res := s.tokens.Verify(userID, courseID, enrollmentID); !res.Valid {
		return nil, 0, ErrAccessDenied
	}

	var attempt quizModels.Attempt
	if err := s.db.Where("id = ? AND is_deleted = ?", attemptID, false).First(&attempt).Error; err != nil {
		return nil, 0, ErrInvalidAttempt
	}
	if attempt.UserID != userID || attempt.QuizID != quizID {
		return nil, 0, ErrInvalidAttempt
	}

	db := s.db.Model(&quizModels.Question{}).Where("quiz_id = ? AND is_deleted = ?", quizID, false)

	var total int64
	db.Count(&total)

	var questions []quizModels.Question
	offset := (page - 1) * limit
	if err := db.Offset(offset).Limit(limit).Order("order_index asc").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = QuestionView{
			ID:           q.ID,
			QuestionType: q.QuestionType,
			Text:         q.Text,
			Marks:        q.Marks,
		}
		if !q.AutoGradable() {
			continue
		}
		var choices []quizModels.Choice
		if err := s.db.Where("question_id = ? AND is_deleted = ?", q.ID, false).Order("order_index asc").Find(&choices).Error; err != nil {
			return nil, 0, err
		}
		for _, ch := range choices {
			views[i].Choices = append(views[i].Choices, ChoiceView{ID: ch.ID, ChoiceText: ch.ChoiceText})
		}
	}

	return views, total, nil
}

// Submit records a batch of answers and closes the attempt. The answer rows
// and the end-time update share one transaction, so a failed submit leaves
// no partial state. Quizzes made up entirely of choice-based questions are
// scored here; anything with free text waits for instructor grading.
func (s *Service) Submit(userID, attemptID uint, inputs []AnswerInput) (*quizModels.Attempt, error) {
	var attempt quizModels.Attempt
	if err := s.db.Where("id = ? AND is_deleted = ?", attemptID, false).First(&attempt).Error; err != nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, ErrUnauthorized
	}
	if attempt.Status != quizModels.AttemptInProgress {
		return nil, ErrInvalidAttempt
	}

	var questions []quizModels.Question
	if err := s.db.Where("quiz_id = ? AND is_deleted = ?", attempt.QuizID, false).Find(&questions).Error; err != nil {
		return nil, err
	}
	questionByID := make(map[uint]quizModels.Question, len(questions))
	allAuto := true
	for _, q := range questions {
		questionByID[q.ID] = q
		if !q.AutoGradable() {
			allAuto = false
		}
	}

	answers := make([]quizModels.Answer, 0, len(inputs))
	answered := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		question, ok := questionByID[in.QuestionID]
		if !ok {
			return nil, ErrInvalidAttempt
		}
		// One answer per question; a repeated choice must not stack marks
		if answered[in.QuestionID] {
			return nil, ErrInvalidAttempt
		}
		answered[in.QuestionID] = true

		answer := quizModels.Answer{
			AttemptID:  attemptID,
			QuestionID: in.QuestionID,
			ChoiceID:   in.ChoiceID,
			AnswerText: in.AnswerText,
		}

		// Choice answers are marked against the authored correct choice
		if question.AutoGradable() && in.ChoiceID != nil {
			var correct quizModels.Choice
			err := s.db.Where("question_id = ? AND is_correct = ? AND is_deleted = ?", in.QuestionID, true, false).First(&correct).Error
			if err == nil && correct.ID == *in.ChoiceID {
				answer.IsCorrect = true
				answer.Marks = question.Marks
			}
		}

		answers = append(answers, answer)
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}

		attempt.EndedAt = &now
		attempt.Status = quizModels.AttemptSubmitted
		if allAuto {
			score := 0
			for _, a := range answers {
				score += a.Marks
			}
			attempt.Score = &score
			attempt.Status = quizModels.AttemptGraded
		}
		return tx.Save(&attempt).Error
	})
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Grade applies instructor marks to free-text answers and finalizes the
// score as the sum of per-question marks. Re-grading a graded attempt is
// allowed for score correction.
func (s *Service) Grade(attemptID uint, marks map[uint]int) (*quizModels.Attempt, error) {
	var attempt quizModels.Attempt
	if err := s.db.Where("id = ? AND is_deleted = ?", attemptID, false).First(&attempt).Error; err != nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.Status == quizModels.AttemptInProgress {
		return nil, ErrInvalidAttempt
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var answers []quizModels.Answer
		if err := tx.Where("attempt_id = ? AND is_deleted = ?", attemptID, false).Find(&answers).Error; err != nil {
			return err
		}

		score := 0
		counted := make(map[uint]bool, len(answers))
		for i := range answers {
			// At most one answer per question counts toward the score
			if counted[answers[i].QuestionID] {
				continue
			}
			counted[answers[i].QuestionID] = true

			var question quizModels.Question
			if err := tx.Where("id = ?", answers[i].QuestionID).First(&question).Error; err != nil {
				return err
			}
			if !question.AutoGradable() {
				if m, ok := marks[answers[i].QuestionID]; ok {
					answers[i].Marks = m
					answers[i].IsCorrect = m == question.Marks
					if err := tx.Model(&answers[i]).Updates(map[string]interface{}{
						"marks":      answers[i].Marks,
						"is_correct": answers[i].IsCorrect,
					}).Error; err != nil {
						return err
					}
				}
			}
			score += answers[i].Marks
		}

		attempt.Score = &score
		attempt.Status = quizModels.AttemptGraded
		return tx.Save(&attempt).Error
	})
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetAttempt returns one attempt owned by the user
func (s *Service) GetAttempt(userID, attemptID uint) (*quizModels.Attempt, error) {
	var attempt quizModels.Attempt
	if err := s.db.Where("id = ? AND is_deleted = ?", attemptID, false).First(&attempt).Error; err != nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, ErrUnauthorized
	}
	return &attempt, nil
}

// SweepAbandoned closes in-progress attempts older than maxAge by setting
// their end time. Returns how many attempts were closed.
func (s *Service) SweepAbandoned(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	now := time.Now()
	res := s.db.Model(&quizModels.Attempt{}).
		Where("status = ? AND is_deleted = ? AND started_at < ?", quizModels.AttemptInProgress, false, cutoff).
		Updates(map[string]interface{}{"status": quizModels.AttemptSubmitted, "ended_at": now})
	return res.RowsAffected, res.Error
}
