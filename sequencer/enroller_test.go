package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"coursedrip/content"
	"coursedrip/models"
)

func seedAll(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, SyncSequences(db, content.All(), testLogger()))
}

func TestHandleTriggerEnrollsIntoNicheSequence(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheEnergyHealing)

	enroller := newTestEnroller(db, nil)
	enrollment, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)
	require.NotNil(t, enrollment)

	var seq models.Sequence
	require.NoError(t, db.First(&seq, enrollment.SequenceID).Error)
	assert.Equal(t, "nurture-energy-healing", seq.Slug)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)
	assert.WithinDuration(t, time.Now(), enrollment.EnrolledAt, 5*time.Second)
}

func TestHandleTriggerDuplicateIsNoOp(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheHealthCoach)

	enroller := newTestEnroller(db, nil)
	first, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)
	second, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)

	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Enrollment{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestHandleTriggerUnknownUser(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)

	enroller := newTestEnroller(db, nil)
	_, err := enroller.HandleTrigger(9999, models.TriggerMiniDiplomaStarted)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestHandleTriggerNoMatchingSequence(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheHealthCoach)

	enroller := newTestEnroller(db, nil)
	enrollment, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err, "unmatched triggers must not fail the event pipeline")
	assert.Nil(t, enrollment)
}

func TestHandleTriggerPicksHighestPriority(t *testing.T) {
	db := newTestDB(t)
	low := createTestSequence(t, db, "nurture-a", models.TriggerMiniDiplomaStarted, models.NicheHealthCoach, 5,
		[]models.SequenceEmail{{StepOrder: 1, Subject: "hi"}})
	high := createTestSequence(t, db, "nurture-b", models.TriggerMiniDiplomaStarted, models.NicheHealthCoach, 50,
		[]models.SequenceEmail{{StepOrder: 1, Subject: "hi"}})
	_ = low

	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheHealthCoach)
	enroller := newTestEnroller(db, nil)
	enrollment, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, high.ID, enrollment.SequenceID)
}

func TestHandleTriggerSkipsInactiveSequence(t *testing.T) {
	db := newTestDB(t)
	seq := createTestSequence(t, db, "nurture-paused", models.TriggerMiniDiplomaStarted, models.NicheHealthCoach, 5,
		[]models.SequenceEmail{{StepOrder: 1, Subject: "hi"}})
	require.NoError(t, db.Model(seq).Update("is_active", false).Error)

	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheHealthCoach)
	enroller := newTestEnroller(db, nil)
	enrollment, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}

func TestCompletionSwitchesNurtureTrack(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheFunctionalMedicine)

	enroller := newTestEnroller(db, nil)
	nurture, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)
	require.NotNil(t, nurture)

	completion, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)
	require.NotNil(t, completion)

	var old models.Enrollment
	require.NoError(t, db.First(&old, nurture.ID).Error)
	assert.Equal(t, models.EnrollmentSwitched, old.Status)

	var active []models.Enrollment
	require.NoError(t, db.Where("user_id = ? AND status = ?", user.ID, models.EnrollmentActive).Find(&active).Error)
	require.Len(t, active, 1, "exactly one active enrollment after the transition")
	assert.Equal(t, completion.ID, active[0].ID)
	assert.Equal(t, models.TriggerMiniDiplomaCompleted, active[0].TriggerType)
}

func TestStartedAfterCompletionIsIgnored(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheFunctionalMedicine)

	enroller := newTestEnroller(db, nil)
	completion, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)
	require.NotNil(t, completion)

	restarted, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)
	assert.Nil(t, restarted, "completion outranks re-starting")

	var count int64
	db.Model(&models.Enrollment{}).
		Where("user_id = ? AND status = ?", user.ID, models.EnrollmentActive).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDuplicateCompletionTriggerIsNoOp(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheFunctionalMedicine)

	enroller := newTestEnroller(db, nil)
	first, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)
	second, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)

	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
}

func TestCompletionAfterNicheChangeDoesNotDoubleEnroll(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheFunctionalMedicine)

	enroller := newTestEnroller(db, nil)
	first, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Niche changes resolve the redelivered event to a different completion
	// sequence, which must not open a parallel track
	require.NoError(t, db.Model(user).Update("niche", models.NicheHealthCoach).Error)

	second, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)
	assert.Nil(t, second)

	var active int64
	db.Model(&models.Enrollment{}).
		Where("user_id = ? AND trigger_type = ? AND status = ?",
			user.ID, models.TriggerMiniDiplomaCompleted, models.EnrollmentActive).Count(&active)
	assert.EqualValues(t, 1, active)

	var kept models.Enrollment
	require.NoError(t, db.Where("user_id = ? AND status = ?", user.ID, models.EnrollmentActive).First(&kept).Error)
	assert.Equal(t, first.SequenceID, kept.SequenceID, "the original completion track keeps running")
}

func TestUnsubscribeHaltsEverything(t *testing.T) {
	db := newTestDB(t)
	seedAll(t, db)
	user := createTestUser(t, db, "ana@example.com", "Ana", models.NicheFunctionalMedicine)

	enroller := newTestEnroller(db, nil)
	_, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaStarted)
	require.NoError(t, err)

	require.NoError(t, enroller.Unsubscribe(user.ID, "no longer interested", "link", "1.2.3.4", "test-agent"))

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.True(t, fresh.Unsubscribed)
	require.NotNil(t, fresh.UnsubscribedAt)

	var active int64
	db.Model(&models.Enrollment{}).
		Where("user_id = ? AND status = ?", user.ID, models.EnrollmentActive).Count(&active)
	assert.Zero(t, active)

	var record models.Unsubscribe
	require.NoError(t, db.Where("email = ?", user.Email).First(&record).Error)
	assert.Equal(t, "no longer interested", record.Reason)
	assert.Equal(t, "link", record.Source)

	// Triggers after opt-out are absorbed
	enrollment, err := enroller.HandleTrigger(user.ID, models.TriggerMiniDiplomaCompleted)
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}
