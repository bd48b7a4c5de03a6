package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "coursedrip/controllers"
	"coursedrip/middleware"
	"coursedrip/sequencer"
)

// SetupRoutes wires the public surface (webhook, unsubscribe link, cron)
// and the protected admin/ops API
func SetupRoutes(app *fiber.App, db *gorm.DB, mailer sequencer.Mailer) {
	eventController := controller.NewEventController(db, log.New(os.Stdout, "EVENT: ", log.LstdFlags))
	unsubscribeController := controller.NewUnsubscribeController(db, log.New(os.Stdout, "UNSUB: ", log.LstdFlags))
	sequenceController := controller.NewSequenceController(db, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags))
	enrollmentController := controller.NewEnrollmentController(db, log.New(os.Stdout, "ENROLLMENT: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	cronController := controller.NewCronController(db, mailer, log.New(os.Stdout, "CRON: ", log.LstdFlags))

	requestLogger := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Public endpoints
	public := app.Group("", requestLogger, middleware.PublicRateLimiter())
	public.Post("/webhooks/events", eventController.HandleEvent)
	public.Get("/unsubscribe/:token", unsubscribeController.UnsubscribeByToken)

	// External scheduler trigger, guarded by a shared secret
	app.Post("/api/v1/cron/sweep", requestLogger, cronController.TriggerSweep)

	// Admin console auth
	auth := app.Group("/auth", requestLogger)
	auth.Post("/login", controller.AdminLogin)

	// Protected ops API
	api := app.Group("/api/v1", middleware.Protected(), requestLogger)

	sequences := api.Group("/sequences")
	sequences.Get("/", sequenceController.GetSequences)
	sequences.Get("/:id", sequenceController.GetSequence)
	sequences.Post("/:id/pause", sequenceController.PauseSequence)
	sequences.Post("/:id/activate", sequenceController.ActivateSequence)
	sequences.Patch("/:id/emails/:order", sequenceController.UpdateStep)

	enrollments := api.Group("/enrollments")
	enrollments.Get("/", enrollmentController.GetEnrollments)
	enrollments.Get("/:id", enrollmentController.GetEnrollment)

	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	dashboard.Get("/stuck", dashboardController.GetStuckEnrollments)

	api.Post("/unsubscribe", unsubscribeController.Unsubscribe)
}
