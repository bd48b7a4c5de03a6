package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursedrip/config"
	"coursedrip/models"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{DB: db, Logger: logger}
}

// GetDashboardStats summarizes engine health for the ops console
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	stats := fiber.Map{}

	counts := map[string]string{
		"active_enrollments":       models.EnrollmentActive,
		"completed_enrollments":    models.EnrollmentCompleted,
		"switched_enrollments":     models.EnrollmentSwitched,
		"unsubscribed_enrollments": models.EnrollmentUnsubscribed,
	}
	for key, status := range counts {
		var count int64
		if err := dc.DB.Model(&models.Enrollment{}).Where("status = ?", status).Count(&count).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to compute stats",
			})
		}
		stats[key] = count
	}

	var sends24h int64
	dc.DB.Model(&models.SequenceSend{}).
		Where("status = ? AND sent_at > ?", models.SendStatusSent, time.Now().Add(-24*time.Hour)).
		Count(&sends24h)
	stats["sends_last_24h"] = sends24h

	var activeSequences int64
	dc.DB.Model(&models.Sequence{}).Where("is_active = ?", true).Count(&activeSequences)
	stats["active_sequences"] = activeSequences

	return c.JSON(stats)
}

type stuckEnrollment struct {
	EnrollmentID uint      `json:"enrollment_id"`
	UserID       uint      `json:"user_id"`
	SequenceID   uint      `json:"sequence_id"`
	StepOrder    int       `json:"step_order"`
	DueSince     time.Time `json:"due_since"`
	OverdueHours float64   `json:"overdue_hours"`
}

// GetStuckEnrollments reports active enrollments whose next step has been
// due for longer than the configured threshold. A perpetually failing
// dispatch shows up here instead of as an exception anywhere user-visible.
func (dc *DashboardController) GetStuckEnrollments(c *fiber.Ctx) error {
	threshold := time.Duration(config.AppConfig.StuckThresholdHours) * time.Hour
	if threshold <= 0 {
		threshold = 6 * time.Hour
	}
	now := time.Now()

	var enrollments []models.Enrollment
	if err := dc.DB.Where("status = ?", models.EnrollmentActive).Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load enrollments",
		})
	}

	var stuck []stuckEnrollment
	for _, enrollment := range enrollments {
		var steps []models.SequenceEmail
		if err := dc.DB.Where("sequence_id = ? AND is_active = ?", enrollment.SequenceID, true).
			Order("step_order asc").Find(&steps).Error; err != nil {
			continue
		}

		var sentOrders []int
		dc.DB.Model(&models.SequenceSend{}).
			Where("enrollment_id = ?", enrollment.ID).
			Pluck("step_order", &sentOrders)
		sent := make(map[int]bool, len(sentOrders))
		for _, o := range sentOrders {
			sent[o] = true
		}

		for _, step := range steps {
			if sent[step.StepOrder] {
				continue
			}
			dueAt := enrollment.EnrolledAt.Add(time.Duration(step.Delay()) * time.Hour)
			if now.Sub(dueAt) > threshold {
				stuck = append(stuck, stuckEnrollment{
					EnrollmentID: enrollment.ID,
					UserID:       enrollment.UserID,
					SequenceID:   enrollment.SequenceID,
					StepOrder:    step.StepOrder,
					DueSince:     dueAt,
					OverdueHours: now.Sub(dueAt).Hours(),
				})
			}
			break
		}
	}

	return c.JSON(fiber.Map{
		"threshold_hours": threshold.Hours(),
		"stuck":           stuck,
	})
}
