package enrollment

import (
	"fmt"
	"testing"

	"lms/database"
	"lms/models"
	"lms/services/capability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *capability.Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	tokens := capability.NewService(db, "test-key", 0)
	return NewService(db, tokens), tokens, db
}

func seedCourse(t *testing.T, db *gorm.DB, free bool) *models.Course {
	t.Helper()
	course := models.Course{Title: "Intro to Go", IsFree: free, IsPublished: true}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func TestEnrollFree_CreatesActiveEnrollment(t *testing.T) {
	svc, tokens, db := newTestService(t)
	course := seedCourse(t, db, true)

	enrollment, err := svc.EnrollFree(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)
	assert.True(t, enrollment.AccessGranted)
	assert.NotEmpty(t, enrollment.CapabilityToken)

	// The issued token passes the capability check
	res := tokens.Verify(1, course.ID, enrollment.ID)
	assert.True(t, res.Valid)
}

func TestEnrollFree_Twice(t *testing.T) {
	svc, _, db := newTestService(t)
	course := seedCourse(t, db, true)

	first, err := svc.EnrollFree(1, course.ID)
	require.NoError(t, err)

	second, err := svc.EnrollFree(1, course.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", 1, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollFree_PaidCourse(t *testing.T) {
	svc, _, db := newTestService(t)
	course := seedCourse(t, db, false)

	_, err := svc.EnrollFree(1, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFree)
}

func TestEnrollFree_UnknownCourse(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.EnrollFree(1, 404)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollAfterPayment_IssuesToken(t *testing.T) {
	svc, tokens, db := newTestService(t)
	course := seedCourse(t, db, false)

	enrollment, err := svc.EnrollAfterPayment(2, course.ID)
	require.NoError(t, err)
	assert.True(t, enrollment.AccessGranted)
	assert.NotEmpty(t, enrollment.CapabilityToken)

	res := tokens.Verify(2, course.ID, enrollment.ID)
	assert.True(t, res.Valid)
}

func TestEnrollAfterPayment_DuplicateDelivery(t *testing.T) {
	svc, _, db := newTestService(t)
	course := seedCourse(t, db, false)

	first, err := svc.EnrollAfterPayment(2, course.ID)
	require.NoError(t, err)

	// A retried payment confirmation must not create a second enrollment
	second, err := svc.EnrollAfterPayment(2, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CapabilityToken, second.CapabilityToken)

	var count int64
	db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", 2, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollAfterPayment_ReactivatesDropped(t *testing.T) {
	svc, tokens, db := newTestService(t)
	course := seedCourse(t, db, false)

	first, err := svc.EnrollAfterPayment(2, course.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(first.ID, models.EnrollmentDropped, false)
	require.NoError(t, err)

	again, err := svc.EnrollAfterPayment(2, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.EnrollmentActive, again.Status)
	assert.NotEmpty(t, again.CapabilityToken)

	res := tokens.Verify(2, course.ID, again.ID)
	assert.True(t, res.Valid)
}

func TestUpdateStatus_RevokesToken(t *testing.T) {
	svc, tokens, db := newTestService(t)
	course := seedCourse(t, db, true)

	enrollment, err := svc.EnrollFree(1, course.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(enrollment.ID, models.EnrollmentDropped, false)
	require.NoError(t, err)
	assert.Empty(t, updated.CapabilityToken)

	res := tokens.Verify(1, course.ID, enrollment.ID)
	assert.False(t, res.Valid)
	assert.Equal(t, capability.ReasonNoToken, res.Reason)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(404, models.EnrollmentCompleted, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByUser_Paginates(t *testing.T) {
	svc, _, db := newTestService(t)

	for i := 0; i < 3; i++ {
		course := seedCourse(t, db, true)
		_, err := svc.EnrollFree(9, course.ID)
		require.NoError(t, err)
	}

	page, total, err := svc.ListByUser(9, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	page, _, err = svc.ListByUser(9, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
