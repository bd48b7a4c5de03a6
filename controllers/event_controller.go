package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursedrip/config"
	"coursedrip/models"
	"coursedrip/sequencer"
	"coursedrip/utils"
)

// EventController consumes lifecycle events from the course platform
// (webhooks) and feeds them to the enrollment manager
type EventController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Enroller *sequencer.Enroller
	Cache    *redis.Client
}

func NewEventController(db *gorm.DB, logger *log.Logger) *EventController {
	ec := &EventController{
		DB:       db,
		Logger:   logger,
		Enroller: sequencer.NewEnroller(db, logger),
	}
	if config.AppConfig.Redis.Enabled {
		ec.Cache = redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.Redis.Address,
			Password: config.AppConfig.Redis.Password,
			DB:       config.AppConfig.Redis.DB,
		})
	}
	return ec
}

type eventInput struct {
	EventID   string `json:"event_id"`
	Event     string `json:"event" validate:"required,oneof=mini_diploma_started mini_diploma_completed unsubscribed"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Niche     string `json:"niche" validate:"omitempty,oneof=functional_medicine energy_healing health_coach"`
	ExamScore *int   `json:"exam_score"`
}

// HandleEvent is the single webhook entrypoint for lifecycle triggers.
// Duplicate deliveries are absorbed twice over: by the optional Redis
// event-id cache and by the enroller's own idempotency checks.
func (ec *EventController) HandleEvent(c *fiber.Ctx) error {
	var input eventInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	if input.EventID != "" && ec.isDuplicateEvent(c.Context(), input.EventID) {
		ec.recordEvent(&input, "duplicate")
		return c.JSON(fiber.Map{"status": "duplicate", "event_id": input.EventID})
	}

	user, err := ec.upsertUser(&input)
	if err != nil {
		LogError("event_user_upsert", err, map[string]interface{}{"email": input.Email})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve user",
		})
	}

	outcome := "ignored"
	if input.Event == models.TriggerUnsubscribed {
		if err := ec.Enroller.Unsubscribe(user.ID, "webhook event", "api", c.IP(), c.Get("User-Agent")); err != nil {
			LogError("event_unsubscribe", err, map[string]interface{}{"user_id": user.ID})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process unsubscribe",
			})
		}
		outcome = "unsubscribed"
	} else {
		enrollment, err := ec.Enroller.HandleTrigger(user.ID, input.Event)
		if err != nil {
			LogError("event_trigger", err, map[string]interface{}{
				"user_id": user.ID,
				"event":   input.Event,
			})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process event",
			})
		}
		if enrollment != nil {
			outcome = "enrolled"
		}
	}

	ec.recordEvent(&input, outcome)
	LogEvent("lifecycle_event", map[string]interface{}{
		"event":   input.Event,
		"user_id": user.ID,
		"outcome": outcome,
	})

	return c.JSON(fiber.Map{
		"status":  "ok",
		"outcome": outcome,
	})
}

// upsertUser finds or creates the subject. Optin creates the profile;
// completion events attach the exam score used for placeholder rendering.
func (ec *EventController) upsertUser(input *eventInput) (*models.User, error) {
	var user models.User
	err := ec.DB.Where("email = ?", input.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
		}
		if input.Niche != "" {
			user.Niche = input.Niche
		}
		if input.Event == models.TriggerMiniDiplomaStarted {
			user.OptedInAt = utils.Pointer(time.Now())
		}
		if input.Event == models.TriggerMiniDiplomaCompleted {
			// Completion can be the first event we ever see for a user; the
			// score must still land for placeholder rendering
			user.ExamCompletedAt = utils.Pointer(time.Now())
			user.ExamScore = input.ExamScore
		}
		if err := ec.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if user.FirstName == "" && input.FirstName != "" {
		updates["first_name"] = input.FirstName
	}
	if input.Niche != "" && input.Niche != user.Niche {
		updates["niche"] = input.Niche
	}
	if input.Event == models.TriggerMiniDiplomaCompleted {
		updates["exam_completed_at"] = time.Now()
		if input.ExamScore != nil {
			updates["exam_score"] = *input.ExamScore
		}
	}
	if len(updates) > 0 {
		if err := ec.DB.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// isDuplicateEvent consults the Redis dedup cache when enabled. Cache
// failures fail open: the enroller is idempotent anyway.
func (ec *EventController) isDuplicateEvent(ctx context.Context, eventID string) bool {
	if ec.Cache == nil {
		return false
	}
	ok, err := ec.Cache.SetNX(ctx, "event:"+eventID, 1, 24*time.Hour).Result()
	if err != nil {
		ec.Logger.Printf("Redis dedup check failed for event %s: %v", eventID, err)
		return false
	}
	return !ok
}

// recordEvent keeps the consumed-event audit trail
func (ec *EventController) recordEvent(input *eventInput, outcome string) {
	payload, _ := json.Marshal(input)
	event := models.WebhookEvent{
		EventID:   input.EventID,
		EventType: input.Event,
		Email:     input.Email,
		Payload:   string(payload),
		Outcome:   outcome,
	}
	if err := ec.DB.Create(&event).Error; err != nil {
		ec.Logger.Printf("Failed to record webhook event: %v", err)
	}
}
