package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursedrip/models"
	"coursedrip/utils"
)

// Mailer is the external dispatch collaborator. The scheduler, not the
// mailer, guarantees at-most-once delivery by gating on its own send
// records.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SweepStats summarizes one sweep for logging and the cron endpoint
type SweepStats struct {
	Scanned    int `json:"scanned"`
	Dispatched int `json:"dispatched"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Scheduler walks all active enrollments and dispatches due steps. It is
// stateless between sweeps and safe to run concurrently or redundantly:
// the unique index on (enrollment_id, step_order) arbitrates races.
type Scheduler struct {
	DB      *gorm.DB
	Mailer  Mailer
	Logger  *log.Logger
	BaseURL string

	// Now is replaceable for tests; nil means time.Now
	Now func() time.Time
}

func NewScheduler(db *gorm.DB, mailer Mailer, logger *log.Logger, baseURL string) *Scheduler {
	return &Scheduler{DB: db, Mailer: mailer, Logger: logger, BaseURL: baseURL}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sweep evaluates every active enrollment once. At most one step is
// dispatched per enrollment per sweep, always the lowest unsent order, so
// narrative order survives even when several offsets have already elapsed.
func (s *Scheduler) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	var enrollments []models.Enrollment
	if err := s.DB.Where("status = ?", models.EnrollmentActive).Find(&enrollments).Error; err != nil {
		return stats, fmt.Errorf("failed to load active enrollments: %w", err)
	}
	stats.Scanned = len(enrollments)

	for i := range enrollments {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err := s.processEnrollment(&enrollments[i], &stats); err != nil {
			stats.Failed++
			s.Logger.Printf("Error processing enrollment %d: %v", enrollments[i].ID, err)
		}
	}
	return stats, nil
}

func (s *Scheduler) processEnrollment(enrollment *models.Enrollment, stats *SweepStats) error {
	// Re-check status on the fresh row: an unsubscribe or transition since
	// the sweep started must take effect now, not next sweep
	var fresh models.Enrollment
	if err := s.DB.First(&fresh, enrollment.ID).Error; err != nil {
		return err
	}
	if fresh.Status != models.EnrollmentActive {
		return nil
	}

	var user models.User
	if err := s.DB.First(&user, fresh.UserID).Error; err != nil {
		return err
	}
	if user.Unsubscribed {
		return nil
	}

	var steps []models.SequenceEmail
	if err := s.DB.Where("sequence_id = ?", fresh.SequenceID).
		Order("step_order asc").Find(&steps).Error; err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}

	sent, err := s.sentOrders(fresh.ID)
	if err != nil {
		return err
	}

	// Lowest active unsent step is the only dispatch candidate; later due
	// steps wait for subsequent sweeps
	var next *models.SequenceEmail
	for i := range steps {
		step := &steps[i]
		if !step.IsActive || sent[step.StepOrder] {
			continue
		}
		next = step
		break
	}

	if next == nil {
		return s.markCompleted(&fresh, stats)
	}

	elapsed := s.now().Sub(fresh.EnrolledAt)
	if elapsed < time.Duration(next.Delay())*time.Hour {
		return nil
	}

	dispatched, err := s.dispatchStep(&fresh, &user, next)
	if err != nil {
		return err
	}
	if !dispatched {
		return nil
	}
	stats.Dispatched++

	// Was that the last active step?
	remaining := 0
	for i := range steps {
		step := &steps[i]
		if step.IsActive && !sent[step.StepOrder] && step.StepOrder != next.StepOrder {
			remaining++
		}
	}
	if remaining == 0 {
		return s.markCompleted(&fresh, stats)
	}
	return nil
}

// dispatchStep claims the (enrollment, step) pair, renders and sends the
// email, then records the dispatch. The claim row is inserted before the
// send: if the process dies in between, the step stays claimed and is never
// sent twice, which is the guarantee that matters for a drip campaign.
func (s *Scheduler) dispatchStep(enrollment *models.Enrollment, user *models.User, step *models.SequenceEmail) (bool, error) {
	claim := models.SequenceSend{
		EnrollmentID: enrollment.ID,
		StepOrder:    step.StepOrder,
		Status:       models.SendStatusSending,
		MessageID:    uuid.NewString(),
	}
	if err := s.DB.Create(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent sweep owns this step
			return false, nil
		}
		return false, err
	}

	unsubscribeURL := s.unsubscribeURL(user.Email)
	binding := TemplateBinding(user, unsubscribeURL)
	subject := RenderTemplate(step.Subject, binding)
	body := utils.BuildEmailHTML(RenderTemplate(step.Body, binding), step.AudioURL, unsubscribeURL)

	if err := s.Mailer.Send(user.Email, subject, body); err != nil {
		// Release the claim so the next sweep retries; campaign timescales
		// make that retry policy sufficient
		if delErr := s.DB.Unscoped().Delete(&claim).Error; delErr != nil {
			s.Logger.Printf("Failed to release claim for enrollment %d step %d: %v",
				enrollment.ID, step.StepOrder, delErr)
		}
		return false, fmt.Errorf("dispatch failed for step %d: %w", step.StepOrder, err)
	}

	now := s.now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&claim).Updates(map[string]interface{}{
			"status":  models.SendStatusSent,
			"subject": subject,
			"sent_at": now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(enrollment).Updates(map[string]interface{}{
			"sent_count":      gorm.Expr("sent_count + ?", 1),
			"last_sent_order": step.StepOrder,
			"last_sent_at":    now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(step).
			Update("sent_count", gorm.Expr("sent_count + ?", 1)).Error
	})
	if err != nil {
		return true, fmt.Errorf("sent but failed to record step %d: %w", step.StepOrder, err)
	}

	s.Logger.Printf("Dispatched step %d of enrollment %d to %s", step.StepOrder, enrollment.ID, user.Email)
	return true, nil
}

// sentOrders returns the set of claimed-or-sent step orders for an
// enrollment. A "sending" claim counts: the step is spoken for.
func (s *Scheduler) sentOrders(enrollmentID uint) (map[int]bool, error) {
	var orders []int
	err := s.DB.Model(&models.SequenceSend{}).
		Where("enrollment_id = ?", enrollmentID).
		Pluck("step_order", &orders).Error
	if err != nil {
		return nil, err
	}
	set := make(map[int]bool, len(orders))
	for _, o := range orders {
		set[o] = true
	}
	return set, nil
}

func (s *Scheduler) markCompleted(enrollment *models.Enrollment, stats *SweepStats) error {
	now := s.now()
	err := s.DB.Model(enrollment).
		Where("status = ?", models.EnrollmentActive).
		Updates(map[string]interface{}{
			"status":       models.EnrollmentCompleted,
			"completed_at": now,
		}).Error
	if err != nil {
		return err
	}
	stats.Completed++
	s.Logger.Printf("Enrollment %d completed", enrollment.ID)
	return nil
}

func (s *Scheduler) unsubscribeURL(email string) string {
	token, err := utils.EncryptToken(email)
	if err != nil {
		return s.BaseURL + "/unsubscribe"
	}
	return s.BaseURL + "/unsubscribe/" + token
}
