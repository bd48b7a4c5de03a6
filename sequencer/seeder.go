package sequencer

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"coursedrip/content"
	"coursedrip/models"
)

// SyncSequences materializes campaign definitions into Sequence and
// SequenceEmail rows. It is idempotent: sequences are found-or-created by
// slug, and steps are replaced wholesale inside one transaction. Enrollment
// rows are never touched, which is why step orders must stay stable across
// re-seeds.
func SyncSequences(db *gorm.DB, defs []content.SequenceDefinition, logger *log.Logger) error {
	for _, def := range defs {
		if err := content.Validate(def); err != nil {
			return fmt.Errorf("invalid sequence definition: %w", err)
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var seq models.Sequence
			err := tx.Where("slug = ?", def.Slug).First(&seq).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			created := seq.ID == 0
			seq.Slug = def.Slug
			seq.Name = def.Name
			seq.Description = def.Description
			seq.TriggerType = def.TriggerType
			seq.Niche = def.Niche
			seq.Priority = def.Priority
			seq.IsSystem = true
			if created {
				// Admins may pause a sequence; re-seeding must not flip it back
				seq.IsActive = true
				if err := tx.Create(&seq).Error; err != nil {
					return err
				}
			} else if err := tx.Save(&seq).Error; err != nil {
				return err
			}

			// Full replace of step content. Unscoped so the unique
			// (sequence_id, step_order) index does not trip over soft-deleted rows.
			if err := tx.Unscoped().Where("sequence_id = ?", seq.ID).Delete(&models.SequenceEmail{}).Error; err != nil {
				return err
			}

			for _, stepDef := range def.Steps {
				step := models.SequenceEmail{
					SequenceID: seq.ID,
					StepOrder:  stepDef.Order,
					DelayDays:  stepDef.DelayDays,
					DelayHours: stepDef.DelayHours,
					Subject:    stepDef.Subject,
					Body:       stepDef.Body,
					AudioURL:   stepDef.AudioURL,
					IsActive:   true,
				}
				if err := tx.Create(&step).Error; err != nil {
					return err
				}
			}

			if created {
				logger.Printf("Seeded sequence %q with %d steps", def.Slug, len(def.Steps))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to sync sequence %q: %w", def.Slug, err)
		}
	}
	return nil
}
