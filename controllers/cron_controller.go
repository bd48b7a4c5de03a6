package controller

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursedrip/config"
	"coursedrip/sequencer"
)

// CronController exposes the sweep to an external periodic invoker. The
// in-process delivery worker covers normal operation; this endpoint exists
// for platforms that prefer an external cron and for manual nudges.
type CronController struct {
	Scheduler *sequencer.Scheduler
	Logger    *log.Logger
}

func NewCronController(db *gorm.DB, mailer sequencer.Mailer, logger *log.Logger) *CronController {
	return &CronController{
		Scheduler: sequencer.NewScheduler(db, mailer, logger, config.AppConfig.PublicBaseURL),
		Logger:    logger,
	}
}

// TriggerSweep runs one delivery sweep. Redundant invocations are safe:
// the scheduler's claim rows arbitrate any overlap with the worker.
func (cc *CronController) TriggerSweep(c *fiber.Ctx) error {
	secret := config.AppConfig.CronSecret
	if secret != "" {
		provided := c.Get("X-Cron-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid cron secret",
			})
		}
	}

	stats, err := cc.Scheduler.Sweep(c.Context())
	if err != nil {
		LogError("cron_sweep", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sweep failed",
			"stats": stats,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sweep completed",
		"stats":   stats,
	})
}
