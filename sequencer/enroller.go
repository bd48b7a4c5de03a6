package sequencer

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"coursedrip/models"
)

// ErrUserNotFound is returned when a trigger references an unknown subject.
// Unknown subjects are a caller bug, unlike unmatched triggers which are
// absorbed silently.
var ErrUserNotFound = errors.New("user not found")

// Enroller reacts to lifecycle trigger events: it creates enrollments,
// absorbs duplicate webhook deliveries, and applies the cross-sequence
// transition rules (nurture halts when the completion event fires, never
// the reverse).
type Enroller struct {
	DB     *gorm.DB
	Logger *log.Logger
	Now    func() time.Time
}

func NewEnroller(db *gorm.DB, logger *log.Logger) *Enroller {
	return &Enroller{DB: db, Logger: logger}
}

func (en *Enroller) now() time.Time {
	if en.Now != nil {
		return en.Now()
	}
	return time.Now()
}

// HandleTrigger establishes or updates the user's enrollment for a
// lifecycle event. It returns the enrollment that is active for the trigger
// afterwards, or nil when the event was absorbed as a no-op.
func (en *Enroller) HandleTrigger(userID uint, triggerType string) (*models.Enrollment, error) {
	var user models.User
	if err := en.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Unsubscribed {
		en.Logger.Printf("Ignoring trigger %q for unsubscribed user %d", triggerType, user.ID)
		return nil, nil
	}

	sequence, err := en.matchSequence(triggerType, user.Niche)
	if err != nil {
		return nil, err
	}
	if sequence == nil {
		// Unmatched triggers must not fail the calling event pipeline
		en.Logger.Printf("No active sequence matches trigger %q for niche %q", triggerType, user.Niche)
		return nil, nil
	}

	// Duplicate webhook delivery: already enrolled in this exact sequence
	var existing models.Enrollment
	err = en.DB.Where("user_id = ? AND sequence_id = ? AND status = ?",
		user.ID, sequence.ID, models.EnrollmentActive).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	switch triggerType {
	case models.TriggerMiniDiplomaCompleted:
		return en.enrollWithTransition(&user, sequence)
	case models.TriggerMiniDiplomaStarted:
		// Completion outranks re-starting: a graduate never drops back into
		// the nurture track
		var completion models.Enrollment
		err := en.DB.Where("user_id = ? AND trigger_type = ? AND status = ?",
			user.ID, models.TriggerMiniDiplomaCompleted, models.EnrollmentActive).
			First(&completion).Error
		if err == nil {
			en.Logger.Printf("User %d already in completion track, ignoring %q", user.ID, triggerType)
			return nil, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return en.enroll(&user, sequence)
	default:
		return en.enroll(&user, sequence)
	}
}

// enroll creates a fresh enrollment with the current time as the scheduling
// epoch. Finished enrollments are never resurrected.
func (en *Enroller) enroll(user *models.User, sequence *models.Sequence) (*models.Enrollment, error) {
	// At most one active enrollment per trigger type. A different sequence
	// with the same trigger (e.g. after a niche change) means the old track
	// keeps running; flag it instead of double-enrolling.
	var conflict models.Enrollment
	err := en.DB.Where("user_id = ? AND trigger_type = ? AND status = ?",
		user.ID, sequence.TriggerType, models.EnrollmentActive).First(&conflict).Error
	if err == nil {
		en.Logger.Printf("User %d already has an active %q enrollment (sequence %d), skipping sequence %d",
			user.ID, sequence.TriggerType, conflict.SequenceID, sequence.ID)
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := models.Enrollment{
		UserID:      user.ID,
		SequenceID:  sequence.ID,
		TriggerType: sequence.TriggerType,
		Status:      models.EnrollmentActive,
		EnrolledAt:  en.now(),
	}
	if err := en.DB.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	en.Logger.Printf("Enrolled user %d into sequence %q", user.ID, sequence.Slug)
	return &enrollment, nil
}

// enrollWithTransition halts any active nurture enrollment and starts the
// completion track in the same transaction, so a concurrent sweep sees
// either the old or the new state but never both active at once.
func (en *Enroller) enrollWithTransition(user *models.User, sequence *models.Sequence) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := en.DB.Transaction(func(tx *gorm.DB) error {
		// Same one-active-per-trigger-type rule as enroll. A redelivered
		// completion event after a niche change resolves a different sequence
		// and must not start a second completion track.
		var conflict models.Enrollment
		err := tx.Where("user_id = ? AND trigger_type = ? AND status = ?",
			user.ID, sequence.TriggerType, models.EnrollmentActive).First(&conflict).Error
		if err == nil {
			en.Logger.Printf("User %d already has an active %q enrollment (sequence %d), skipping sequence %d",
				user.ID, sequence.TriggerType, conflict.SequenceID, sequence.ID)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		result := tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND trigger_type = ? AND status = ?",
				user.ID, models.TriggerMiniDiplomaStarted, models.EnrollmentActive).
			Update("status", models.EnrollmentSwitched)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			en.Logger.Printf("Switched user %d out of nurture track", user.ID)
		}

		created := models.Enrollment{
			UserID:      user.ID,
			SequenceID:  sequence.ID,
			TriggerType: sequence.TriggerType,
			Status:      models.EnrollmentActive,
			EnrolledAt:  en.now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		enrollment = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if enrollment != nil {
		en.Logger.Printf("Enrolled user %d into sequence %q", user.ID, sequence.Slug)
	}
	return enrollment, nil
}

// matchSequence picks the highest-priority active sequence for a trigger
// and niche. More than one match at the top priority indicates a content
// bug, so it gets logged.
func (en *Enroller) matchSequence(triggerType, niche string) (*models.Sequence, error) {
	var sequences []models.Sequence
	err := en.DB.Where("trigger_type = ? AND niche = ? AND is_active = ?", triggerType, niche, true).
		Order("priority desc, id asc").
		Find(&sequences).Error
	if err != nil {
		return nil, err
	}
	if len(sequences) == 0 {
		return nil, nil
	}
	if len(sequences) > 1 && sequences[0].Priority == sequences[1].Priority {
		en.Logger.Printf("Config warning: sequences %q and %q both match trigger %q at priority %d",
			sequences[0].Slug, sequences[1].Slug, triggerType, sequences[0].Priority)
	}
	return &sequences[0], nil
}

// Unsubscribe flags the user, records the opt-out for audit, and halts every
// active enrollment. The next sweep sees the status change and sends nothing
// further.
func (en *Enroller) Unsubscribe(userID uint, reason, source, ip, userAgent string) error {
	var user models.User
	if err := en.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return en.DB.Transaction(func(tx *gorm.DB) error {
		now := en.now()
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"unsubscribed":    true,
			"unsubscribed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to flag user: %w", err)
		}

		record := models.Unsubscribe{
			Email:     user.Email,
			UserID:    &user.ID,
			Reason:    reason,
			Source:    source,
			IPAddress: ip,
			UserAgent: userAgent,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		return tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND status = ?", user.ID, models.EnrollmentActive).
			Update("status", models.EnrollmentUnsubscribed).Error
	})
}
