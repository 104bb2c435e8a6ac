package enrollment

import (
	"errors"
	"time"

	"lms/models"
	"lms/services/capability"

	"gorm.io/gorm"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrCourseNotFree   = errors.New("course is not free")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrNotFound        = errors.New("enrollment not found")
)

// Service is the authoritative ledger of who has access to which course.
// Only this service writes the enrollment token and status fields.
type Service struct {
	db     *gorm.DB
	tokens *capability.Service
}

func NewService(db *gorm.DB, tokens *capability.Service) *Service {
	return &Service{db: db, tokens: tokens}
}

// EnrollFree enrolls a user into a free course. A capability token is issued
// here too so free and paid content go through the same check. Calling it
// twice leaves exactly one active enrollment; the second call reports
// ErrAlreadyEnrolled alongside the existing record.
func (s *Service) EnrollFree(userID, courseID uint) (*models.Enrollment, error) {
	var course models.Course
	if err := s.db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return nil, ErrCourseNotFound
	}
	if !course.IsFree {
		return nil, ErrCourseNotFree
	}

	var existing models.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error; err == nil {
		return &existing, ErrAlreadyEnrolled
	}

	enrollment, err := s.create(userID, courseID)
	if err != nil {
		// A racing request may have taken the (user, course) unique index;
		// surface the winner instead of the constraint error.
		if s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error == nil {
			return &existing, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

// EnrollAfterPayment converts a confirmed payment into an access-granted
// enrollment with a freshly minted capability token. It is idempotent with
// respect to duplicate payment-confirmation deliveries: an existing
// access-granted enrollment is reused, a revoked one is re-activated with a
// new token (overwriting invalidates the prior token).
func (s *Service) EnrollAfterPayment(userID, courseID uint) (*models.Enrollment, error) {
	var existing models.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error; err == nil {
		if existing.AccessGranted && existing.Status == models.EnrollmentActive {
			return &existing, nil
		}

		token, err := s.tokens.Issue(userID, courseID, existing.ID)
		if err != nil {
			return nil, err
		}
		existing.Status = models.EnrollmentActive
		existing.AccessGranted = true
		existing.CapabilityToken = token
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}

	enrollment, err := s.create(userID, courseID)
	if err != nil {
		if s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error == nil {
			return &existing, nil
		}
		return nil, err
	}
	return enrollment, nil
}

// create inserts an active, access-granted enrollment and stores its token
// on the same row within one transaction.
func (s *Service) create(userID, courseID uint) (*models.Enrollment, error) {
	enrollment := models.Enrollment{
		UserID:        userID,
		CourseID:      courseID,
		Status:        models.EnrollmentActive,
		AccessGranted: true,
		EnrolledAt:    time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		token, err := s.tokens.Issue(userID, courseID, enrollment.ID)
		if err != nil {
			return err
		}
		enrollment.CapabilityToken = token
		return tx.Model(&enrollment).Update("capability_token", token).Error
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpdateStatus is the administrative override for enrollment state. Moving
// off ACTIVE or revoking access clears the stored token, so a capability
// never outlives its enrollment.
func (s *Service) UpdateStatus(enrollmentID uint, status string, accessGranted bool) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return nil, ErrNotFound
	}

	enrollment.Status = status
	enrollment.AccessGranted = accessGranted
	if status != models.EnrollmentActive || !accessGranted {
		enrollment.CapabilityToken = ""
	}

	if err := s.db.Save(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetByID fetches one enrollment with its ownership fields for verification
func (s *Service) GetByID(enrollmentID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// ListByUser returns the user's enrollments newest first
func (s *Service) ListByUser(userID uint, page, limit int) ([]models.Enrollment, int64, error) {
	db := s.db.Model(&models.Enrollment{}).Where("user_id = ? AND is_deleted = ?", userID, false)

	var total int64
	db.Count(&total)

	var enrollments []models.Enrollment
	offset := (page - 1) * limit
	if err := db.Offset(offset).Limit(limit).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}
