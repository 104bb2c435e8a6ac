package capability

import (
	"errors"
	"fmt"
	"time"

	"lms/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification failure reasons
const (
	ReasonOK               = "OK"
	ReasonNoEnrollment     = "NO_ENROLLMENT"
	ReasonNoToken          = "NO_TOKEN"
	ReasonSignatureInvalid = "SIGNATURE_INVALID"
	ReasonExpired          = "EXPIRED"
	ReasonPayloadMismatch  = "PAYLOAD_MISMATCH"
)

// Result is the outcome of a capability check
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// Service mints and verifies capability tokens. A token binds a
// (learner, course, enrollment) triple; it lives on the enrollment row and
// is the sole gate for paid content and quizzes.
type Service struct {
	db  *gorm.DB
	key []byte
	ttl time.Duration
}

func NewService(db *gorm.DB, signingKey string, ttlHours int) *Service {
	return &Service{
		db:  db,
		key: []byte(signingKey),
		ttl: time.Duration(ttlHours) * time.Hour,
	}
}

// Issue produces a signed token for the given triple. The caller is
// responsible for persisting it onto the enrollment record.
func (s *Service) Issue(userID, courseID, enrollmentID uint) (string, error) {
	claims := jwt.MapClaims{
		"learnerId":    userID,
		"courseId":     courseID,
		"enrollmentId": enrollmentID,
		"jti":          uuid.NewString(),
		"iat":          time.Now().Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = time.Now().Add(s.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verify looks up the enrollment, authenticates its stored token and
// cross-checks all three payload fields against the supplied identifiers.
// It is a pure read-then-compare operation.
func (s *Service) Verify(userID, courseID, enrollmentID uint) Result {
	var enrollment models.Enrollment
	err := s.db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error
	if err != nil {
		return Result{Valid: false, Reason: ReasonNoEnrollment}
	}

	if enrollment.CapabilityToken == "" {
		return Result{Valid: false, Reason: ReasonNoToken}
	}

	token, err := jwt.Parse(enrollment.CapabilityToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{Valid: false, Reason: ReasonExpired}
		}
		return Result{Valid: false, Reason: ReasonSignatureInvalid}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Result{Valid: false, Reason: ReasonSignatureInvalid}
	}

	// JWT numbers decode as float64
	if !claimMatches(claims, "learnerId", userID) ||
		!claimMatches(claims, "courseId", courseID) ||
		!claimMatches(claims, "enrollmentId", enrollmentID) {
		return Result{Valid: false, Reason: ReasonPayloadMismatch}
	}

	return Result{Valid: true, Reason: ReasonOK}
}

func claimMatches(claims jwt.MapClaims, key string, want uint) bool {
	got, ok := claims[key].(float64)
	return ok && uint(got) == want
}
