package attempt

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"lms/database"
	"lms/models"
	quizModels "lms/models/quiz"
	"lms/services/capability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	svc        *Service
	db         *gorm.DB
	userID     uint
	courseID   uint
	enrollment *models.Enrollment
	quiz       *quizModels.Quiz
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	tokens := capability.NewService(db, "test-key", 0)

	course := models.Course{Title: "Paid Course", IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	enrollment := models.Enrollment{
		UserID:        1,
		CourseID:      course.ID,
		Status:        models.EnrollmentActive,
		AccessGranted: true,
		EnrolledAt:    time.Now(),
	}
	require.NoError(t, db.Create(&enrollment).Error)
	token, err := tokens.Issue(1, course.ID, enrollment.ID)
	require.NoError(t, err)
	enrollment.CapabilityToken = token
	require.NoError(t, db.Save(&enrollment).Error)

	quiz := quizModels.Quiz{CourseID: course.ID, Title: "Checkpoint", MaxAttempts: maxAttempts, IsPublished: true}
	require.NoError(t, db.Create(&quiz).Error)

	return &fixture{
		svc:        NewService(db, tokens),
		db:         db,
		userID:     1,
		courseID:   course.ID,
		enrollment: &enrollment,
		quiz:       &quiz,
	}
}

// addQuestion seeds a question; for choice types the first choice text in
// correct position is marked correct.
func (f *fixture) addQuestion(t *testing.T, qType string, marks int, choices []string, correctIdx int) *quizModels.Question {
	t.Helper()
	question := quizModels.Question{QuizID: f.quiz.ID, QuestionType: qType, Text: "Q", Marks: marks}
	require.NoError(t, f.db.Create(&question).Error)
	for i, text := range choices {
		choice := quizModels.Choice{QuestionID: question.ID, ChoiceText: text, IsCorrect: i == correctIdx, OrderIndex: i}
		require.NoError(t, f.db.Create(&choice).Error)
	}
	return &question
}

func (f *fixture) correctChoice(t *testing.T, questionID uint) *quizModels.Choice {
	t.Helper()
	var choice quizModels.Choice
	require.NoError(t, f.db.Where("question_id = ? AND is_correct = ?", questionID, true).First(&choice).Error)
	return &choice
}

func TestStart_CreatesInProgressAttempt(t *testing.T) {
	f := newFixture(t, 2)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, quizModels.AttemptInProgress, attempt.Status)
	assert.Equal(t, 1, attempt.AttemptNumber)
	assert.Nil(t, attempt.EndedAt)
	assert.Nil(t, attempt.Score)
}

func TestStart_AccessDenied(t *testing.T) {
	f := newFixture(t, 2)

	// Wrong learner id fails the capability check before any row is written
	_, err := f.svc.Start(99, f.quiz.ID, f.courseID, f.enrollment.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	var count int64
	f.db.Model(&quizModels.Attempt{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestStart_UnpublishedQuiz(t *testing.T) {
	f := newFixture(t, 2)
	f.quiz.IsPublished = false
	require.NoError(t, f.db.Save(f.quiz).Error)

	_, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestStart_ExhaustAttempts(t *testing.T) {
	f := newFixture(t, 2)

	for i := 0; i < 2; i++ {
		attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
		require.NoError(t, err)
		_, err = f.svc.Submit(f.userID, attempt.ID, nil)
		require.NoError(t, err)
	}

	_, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	assert.ErrorIs(t, err, ErrAttemptLimitReached)
}

func TestStart_ConcurrentNeverOverIssues(t *testing.T) {
	f := newFixture(t, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Failures here are either the limit or a lock conflict; what
			// matters is that no extra row lands.
			f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID) //nolint:errcheck
		}()
	}
	wg.Wait()

	var count int64
	f.db.Model(&quizModels.Attempt{}).Where("user_id = ? AND quiz_id = ?", f.userID, f.quiz.ID).Count(&count)
	assert.LessOrEqual(t, count, int64(2))
}

func TestQuestions_HidesCorrectness(t *testing.T) {
	f := newFixture(t, 2)
	f.addQuestion(t, quizModels.QuestionMCQ, 2, []string{"a", "b", "c"}, 1)
	f.addQuestion(t, quizModels.QuestionTrueFalse, 1, []string{"True", "False"}, 0)
	f.addQuestion(t, quizModels.QuestionFreeText, 5, nil, 0)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	views, total, err := f.svc.Questions(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID, attempt.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, views, 3)

	assert.Len(t, views[0].Choices, 3)
	assert.Len(t, views[1].Choices, 2)
	assert.Empty(t, views[2].Choices)
}

func TestQuestions_Pagination(t *testing.T) {
	f := newFixture(t, 1)
	for i := 0; i < 5; i++ {
		f.addQuestion(t, quizModels.QuestionMCQ, 1, []string{"a", "b"}, 0)
	}

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	views, total, err := f.svc.Questions(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID, attempt.ID, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, views, 2)
}

func TestQuestions_InvalidAttempt(t *testing.T) {
	f := newFixture(t, 2)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	// Attempt belonging to another quiz id is rejected
	otherQuiz := quizModels.Quiz{CourseID: f.courseID, Title: "Other", MaxAttempts: 1, IsPublished: true}
	require.NoError(t, f.db.Create(&otherQuiz).Error)
	_, _, err = f.svc.Questions(f.userID, otherQuiz.ID, f.courseID, f.enrollment.ID, attempt.ID, 1, 10)
	assert.ErrorIs(t, err, ErrInvalidAttempt)

	_, _, err = f.svc.Questions(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID, 9999, 1, 10)
	assert.ErrorIs(t, err, ErrInvalidAttempt)
}

func TestSubmit_AutoGradesChoiceOnlyQuiz(t *testing.T) {
	f := newFixture(t, 1)
	q1 := f.addQuestion(t, quizModels.QuestionMCQ, 2, []string{"a", "b", "c"}, 1)
	q2 := f.addQuestion(t, quizModels.QuestionTrueFalse, 1, []string{"True", "False"}, 0)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	right := f.correctChoice(t, q1.ID)
	var wrong quizModels.Choice
	require.NoError(t, f.db.Where("question_id = ? AND is_correct = ?", q2.ID, false).First(&wrong).Error)

	submitted, err := f.svc.Submit(f.userID, attempt.ID, []AnswerInput{
		{QuestionID: q1.ID, ChoiceID: &right.ID},
		{QuestionID: q2.ID, ChoiceID: &wrong.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, quizModels.AttemptGraded, submitted.Status)
	require.NotNil(t, submitted.Score)
	assert.Equal(t, 2, *submitted.Score)
	require.NotNil(t, submitted.EndedAt)
	assert.False(t, submitted.EndedAt.Before(submitted.StartedAt))
}

func TestSubmit_MixedQuizWaitsForGrading(t *testing.T) {
	f := newFixture(t, 1)
	q1 := f.addQuestion(t, quizModels.QuestionMCQ, 2, []string{"a", "b"}, 0)
	q2 := f.addQuestion(t, quizModels.QuestionFreeText, 5, nil, 0)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	right := f.correctChoice(t, q1.ID)
	submitted, err := f.svc.Submit(f.userID, attempt.ID, []AnswerInput{
		{QuestionID: q1.ID, ChoiceID: &right.ID},
		{QuestionID: q2.ID, AnswerText: "interfaces describe behavior"},
	})
	require.NoError(t, err)

	assert.Equal(t, quizModels.AttemptSubmitted, submitted.Status)
	assert.Nil(t, submitted.Score)
}

func TestSubmit_Unauthorized(t *testing.T) {
	f := newFixture(t, 1)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(42, attempt.ID, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmit_AttemptNotFound(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Submit(f.userID, 9999, nil)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestSubmit_Twice(t *testing.T) {
	f := newFixture(t, 1)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(f.userID, attempt.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.Submit(f.userID, attempt.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidAttempt)
}

func TestSubmit_UnknownQuestionLeavesNoRows(t *testing.T) {
	f := newFixture(t, 1)
	f.addQuestion(t, quizModels.QuestionMCQ, 1, []string{"a", "b"}, 0)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(f.userID, attempt.ID, []AnswerInput{{QuestionID: 9999}})
	assert.ErrorIs(t, err, ErrInvalidAttempt)

	var count int64
	f.db.Model(&quizModels.Answer{}).Where("attempt_id = ?", attempt.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	var reread quizModels.Attempt
	require.NoError(t, f.db.First(&reread, attempt.ID).Error)
	assert.Equal(t, quizModels.AttemptInProgress, reread.Status)
	assert.Nil(t, reread.EndedAt)
}

func TestSubmit_RepeatedQuestionRejected(t *testing.T) {
	f := newFixture(t, 1)
	q1 := f.addQuestion(t, quizModels.QuestionMCQ, 2, []string{"a", "b", "c"}, 1)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	// Repeating the correct choice must not stack marks past the quiz maximum
	right := f.correctChoice(t, q1.ID)
	_, err = f.svc.Submit(f.userID, attempt.ID, []AnswerInput{
		{QuestionID: q1.ID, ChoiceID: &right.ID},
		{QuestionID: q1.ID, ChoiceID: &right.ID},
		{QuestionID: q1.ID, ChoiceID: &right.ID},
	})
	assert.ErrorIs(t, err, ErrInvalidAttempt)

	var count int64
	f.db.Model(&quizModels.Answer{}).Where("attempt_id = ?", attempt.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	var reread quizModels.Attempt
	require.NoError(t, f.db.First(&reread, attempt.ID).Error)
	assert.Equal(t, quizModels.AttemptInProgress, reread.Status)
	assert.Nil(t, reread.Score)

	// The attempt is still open, so a clean single-answer submit goes through
	submitted, err := f.svc.Submit(f.userID, attempt.ID, []AnswerInput{
		{QuestionID: q1.ID, ChoiceID: &right.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, submitted.Score)
	assert.Equal(t, 2, *submitted.Score)
}

func TestAnswerRowsUniquePerQuestion(t *testing.T) {
	f := newFixture(t, 1)
	q1 := f.addQuestion(t, quizModels.QuestionMCQ, 2, []string{"a", "b"}, 0)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	right := f.correctChoice(t, q1.ID)
	first := quizModels.Answer{AttemptID: attempt.ID, QuestionID: q1.ID, ChoiceID: &right.ID}
	require.NoError(t, f.db.Create(&first).Error)

	dup := quizModels.Answer{AttemptID: attempt.ID, QuestionID: q1.ID, ChoiceID: &right.ID}
	assert.Error(t, f.db.Create(&dup).Error)
}

func TestGrade_SumsAutoAndInstructorMarks(t *testing.T) {
	f := newFixture(t, 1)
	q1 := f.addQuestion(t, quizModels.QuestionMCQ, 2, []string{"a", "b"}, 0)
	q2 := f.addQuestion(t, quizModels.QuestionFreeText, 5, nil, 0)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	right := f.correctChoice(t, q1.ID)
	_, err = f.svc.Submit(f.userID, attempt.ID, []AnswerInput{
		{QuestionID: q1.ID, ChoiceID: &right.ID},
		{QuestionID: q2.ID, AnswerText: "goroutines are cheap"},
	})
	require.NoError(t, err)

	graded, err := f.svc.Grade(attempt.ID, map[uint]int{q2.ID: 3})
	require.NoError(t, err)
	assert.Equal(t, quizModels.AttemptGraded, graded.Status)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 5, *graded.Score)

	// Score correction overwrites the previous grade
	regraded, err := f.svc.Grade(attempt.ID, map[uint]int{q2.ID: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, *regraded.Score)
}

func TestGrade_InProgressAttempt(t *testing.T) {
	f := newFixture(t, 1)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	_, err = f.svc.Grade(attempt.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidAttempt)
}

func TestListQuizzes_RequiresCapability(t *testing.T) {
	f := newFixture(t, 1)

	quizzes, err := f.svc.ListQuizzes(f.userID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, quizzes, 1)

	_, err = f.svc.ListQuizzes(99, f.courseID, f.enrollment.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSweepAbandoned(t *testing.T) {
	f := newFixture(t, 2)

	attempt, err := f.svc.Start(f.userID, f.quiz.ID, f.courseID, f.enrollment.ID)
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, f.db.Model(&quizModels.Attempt{}).Where("id = ?", attempt.ID).Update("started_at", stale).Error)

	closed, err := f.svc.SweepAbandoned(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	var reread quizModels.Attempt
	require.NoError(t, f.db.First(&reread, attempt.ID).Error)
	assert.Equal(t, quizModels.AttemptSubmitted, reread.Status)
	assert.NotNil(t, reread.EndedAt)
}
