package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"coursedrip/config"
	"coursedrip/sequencer"
)

// DeliveryWorker runs the delivery sweep on a fixed cadence. The sweep
// itself is stateless and idempotent, so overlapping runs (or the external
// cron endpoint firing at the same time) are safe.
type DeliveryWorker struct {
	Scheduler *sequencer.Scheduler
	Interval  time.Duration
	Logger    *log.Logger
}

func NewDeliveryWorker(db *gorm.DB, mailer sequencer.Mailer, logger *log.Logger) *DeliveryWorker {
	interval := time.Duration(config.AppConfig.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &DeliveryWorker{
		Scheduler: sequencer.NewScheduler(db, mailer, logger, config.AppConfig.PublicBaseURL),
		Interval:  interval,
		Logger:    logger,
	}
}

func (dw *DeliveryWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	dw.Logger.Println("Delivery worker started")

	ticker := time.NewTicker(dw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dw.Logger.Println("Delivery worker shutting down...")
			return
		case <-ticker.C:
			stats, err := dw.Scheduler.Sweep(ctx)
			if err != nil {
				dw.Logger.Printf("Sweep error: %v", err)
				continue
			}
			if stats.Dispatched > 0 || stats.Completed > 0 || stats.Failed > 0 {
				dw.Logger.Printf("Sweep: scanned=%d dispatched=%d completed=%d failed=%d",
					stats.Scanned, stats.Dispatched, stats.Completed, stats.Failed)
			}
		}
	}
}
