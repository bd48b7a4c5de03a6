package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"coursedrip/config"
	"coursedrip/content"
	"coursedrip/models"
	"coursedrip/sequencer"
)

func newWebhookApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	logger := log.New(io.Discard, "", 0)
	require.NoError(t, sequencer.SyncSequences(db, content.All(), logger))

	ec := &EventController{
		DB:       db,
		Logger:   logger,
		Enroller: sequencer.NewEnroller(db, logger),
	}

	app := fiber.New()
	app.Post("/webhooks/events", ec.HandleEvent)
	return app, db
}

func postEvent(t *testing.T, app *fiber.App, payload map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/webhooks/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func TestHandleEventCreatesUserAndEnrolls(t *testing.T) {
	app, db := newWebhookApp(t)

	status, body := postEvent(t, app, map[string]interface{}{
		"event":      "mini_diploma_started",
		"email":      "Ana@Example.com",
		"first_name": "Ana",
		"niche":      "health_coach",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "enrolled", body["outcome"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "ana@example.com").First(&user).Error)
	assert.Equal(t, "Ana", user.FirstName)
	assert.Equal(t, models.NicheHealthCoach, user.Niche)
	require.NotNil(t, user.OptedInAt)

	var enrollment models.Enrollment
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&enrollment).Error)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)

	var audit models.WebhookEvent
	require.NoError(t, db.Where("email = ?", "ana@example.com").First(&audit).Error)
	assert.Equal(t, "enrolled", audit.Outcome)
}

func TestHandleEventDuplicateDeliveryIsIdempotent(t *testing.T) {
	app, db := newWebhookApp(t)

	payload := map[string]interface{}{
		"event":      "mini_diploma_started",
		"email":      "ana@example.com",
		"first_name": "Ana",
		"niche":      "health_coach",
	}
	status, _ := postEvent(t, app, payload)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = postEvent(t, app, payload)
	require.Equal(t, fiber.StatusOK, status)

	var count int64
	db.Model(&models.Enrollment{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestHandleEventCompletionAttachesScore(t *testing.T) {
	app, db := newWebhookApp(t)

	postEvent(t, app, map[string]interface{}{
		"event": "mini_diploma_started", "email": "ana@example.com",
		"first_name": "Ana", "niche": "functional_medicine",
	})
	score := 91
	status, body := postEvent(t, app, map[string]interface{}{
		"event": "mini_diploma_completed", "email": "ana@example.com",
		"exam_score": score,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "enrolled", body["outcome"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "ana@example.com").First(&user).Error)
	require.NotNil(t, user.ExamScore)
	assert.Equal(t, score, *user.ExamScore)
	require.NotNil(t, user.ExamCompletedAt)

	var active []models.Enrollment
	require.NoError(t, db.Where("user_id = ? AND status = ?", user.ID, models.EnrollmentActive).Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, models.TriggerMiniDiplomaCompleted, active[0].TriggerType)
}

func TestHandleEventCompletionAsFirstEventSetsScore(t *testing.T) {
	app, db := newWebhookApp(t)

	// No prior started event; the completion webhook creates the user
	status, body := postEvent(t, app, map[string]interface{}{
		"event": "mini_diploma_completed", "email": "noa@example.com",
		"first_name": "Noa", "niche": "energy_healing", "exam_score": 88,
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "enrolled", body["outcome"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "noa@example.com").First(&user).Error)
	require.NotNil(t, user.ExamScore)
	assert.Equal(t, 88, *user.ExamScore)
	require.NotNil(t, user.ExamCompletedAt)
}

func TestHandleEventUnsubscribe(t *testing.T) {
	app, db := newWebhookApp(t)

	postEvent(t, app, map[string]interface{}{
		"event": "mini_diploma_started", "email": "ana@example.com",
		"first_name": "Ana", "niche": "energy_healing",
	})
	status, body := postEvent(t, app, map[string]interface{}{
		"event": "unsubscribed", "email": "ana@example.com",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "unsubscribed", body["outcome"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "ana@example.com").First(&user).Error)
	assert.True(t, user.Unsubscribed)

	var active int64
	db.Model(&models.Enrollment{}).Where("status = ?", models.EnrollmentActive).Count(&active)
	assert.Zero(t, active)
}

func TestHandleEventRejectsBadInput(t *testing.T) {
	app, _ := newWebhookApp(t)

	status, _ := postEvent(t, app, map[string]interface{}{
		"event": "account_deleted", "email": "ana@example.com",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postEvent(t, app, map[string]interface{}{
		"event": "mini_diploma_started", "email": "not-an-email",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postEvent(t, app, map[string]interface{}{
		"email": "ana@example.com",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandleEventUnknownNicheIsIgnoredSilently(t *testing.T) {
	app, db := newWebhookApp(t)

	// Valid event for a user with no niche on file: no campaign matches,
	// but the webhook must still succeed
	status, body := postEvent(t, app, map[string]interface{}{
		"event": "mini_diploma_started", "email": "ana@example.com",
		"first_name": "Ana",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ignored", body["outcome"])

	var count int64
	db.Model(&models.Enrollment{}).Count(&count)
	assert.Zero(t, count)
}
