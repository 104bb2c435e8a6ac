package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/services/attempt"

	"github.com/robfig/cron/v3"
)

// InitializeAttemptScheduler sets up the daily sweep that closes quiz
// attempts left in progress past the configured window.
func InitializeAttemptScheduler(attempts *attempt.Service) {
	log.Println("[ATTEMPT-SCHEDULER] Initializing attempt scheduler...")

	c := cron.New()

	// Run daily at 3 AM
	c.AddFunc("0 3 * * *", func() {
		log.Println("[ATTEMPT-SCHEDULER] Running abandoned attempt sweep...")
		SweepAbandonedAttempts(attempts)
	})

	c.Start()
	log.Println("[ATTEMPT-SCHEDULER] Attempt scheduler started - runs daily at 3 AM")
}

// SweepAbandonedAttempts closes stale in-progress attempts and logs the count
func SweepAbandonedAttempts(attempts *attempt.Service) {
	maxAge := time.Duration(config.AppConfig.AttemptMaxAgeHours) * time.Hour

	closed, err := attempts.SweepAbandoned(maxAge)
	if err != nil {
		log.Printf("[ATTEMPT-SCHEDULER] Sweep failed: %v", err)
		return
	}
	log.Printf("[ATTEMPT-SCHEDULER] Closed %d abandoned attempts", closed)
}
