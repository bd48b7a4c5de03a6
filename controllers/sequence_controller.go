package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursedrip/models"
)

type SequenceController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSequenceController(db *gorm.DB, logger *log.Logger) *SequenceController {
	return &SequenceController{DB: db, Logger: logger}
}

// GetSequences lists all campaigns with their step counts
func (sc *SequenceController) GetSequences(c *fiber.Ctx) error {
	var sequences []models.Sequence
	query := sc.DB.Order("trigger_type, niche")
	if trigger := c.Query("trigger_type"); trigger != "" {
		query = query.Where("trigger_type = ?", trigger)
	}
	if err := query.Find(&sequences).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load sequences",
		})
	}

	type sequenceSummary struct {
		models.Sequence
		StepCount int64 `json:"step_count"`
	}
	summaries := make([]sequenceSummary, 0, len(sequences))
	for _, seq := range sequences {
		var count int64
		sc.DB.Model(&models.SequenceEmail{}).Where("sequence_id = ?", seq.ID).Count(&count)
		summaries = append(summaries, sequenceSummary{Sequence: seq, StepCount: count})
	}

	return c.JSON(fiber.Map{"sequences": summaries})
}

// GetSequence returns one campaign with its ordered steps
func (sc *SequenceController) GetSequence(c *fiber.Ctx) error {
	var sequence models.Sequence
	err := sc.DB.Preload("Emails", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order asc")
	}).First(&sequence, c.Params("id")).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sequence not found",
		})
	}
	return c.JSON(sequence)
}

// PauseSequence stops new enrollments into a campaign. Existing enrollments
// keep running; pausing individual steps handles in-flight changes.
func (sc *SequenceController) PauseSequence(c *fiber.Ctx) error {
	return sc.setSequenceActive(c, false)
}

// ActivateSequence re-enables a paused campaign
func (sc *SequenceController) ActivateSequence(c *fiber.Ctx) error {
	return sc.setSequenceActive(c, true)
}

func (sc *SequenceController) setSequenceActive(c *fiber.Ctx, active bool) error {
	var sequence models.Sequence
	if err := sc.DB.First(&sequence, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sequence not found",
		})
	}

	if err := sc.DB.Model(&sequence).Update("is_active", active).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update sequence",
		})
	}

	sc.Logger.Printf("Sequence %q active=%t (admin %v)", sequence.Slug, active, c.Locals("admin_email"))
	return c.JSON(fiber.Map{"message": "Sequence updated", "is_active": active})
}

type updateStepInput struct {
	IsActive *bool `json:"is_active"`
}

// UpdateStep toggles one step mid-flight. The set-based sent tracking means
// deactivating a step never stalls enrollments that are past it.
func (sc *SequenceController) UpdateStep(c *fiber.Ctx) error {
	var input updateStepInput
	if err := c.BodyParser(&input); err != nil || input.IsActive == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "is_active is required",
		})
	}

	var step models.SequenceEmail
	err := sc.DB.Where("sequence_id = ? AND step_order = ?", c.Params("id"), c.Params("order")).
		First(&step).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	if err := sc.DB.Model(&step).Update("is_active", *input.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update step",
		})
	}

	return c.JSON(fiber.Map{"message": "Step updated", "is_active": *input.IsActive})
}
