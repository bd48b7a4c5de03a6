package sequencer

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"coursedrip/config"
	"coursedrip/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	return db
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func createTestUser(t *testing.T, db *gorm.DB, email, firstName, niche string) *models.User {
	t.Helper()
	user := &models.User{Email: email, FirstName: firstName, Niche: niche}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestSequence persists a small campaign directly, bypassing the
// content package, so scheduler tests control their own step schedules
func createTestSequence(t *testing.T, db *gorm.DB, slug, trigger, niche string, priority int, steps []models.SequenceEmail) *models.Sequence {
	t.Helper()
	seq := &models.Sequence{
		Slug:        slug,
		Name:        slug,
		TriggerType: trigger,
		Niche:       niche,
		Priority:    priority,
		IsActive:    true,
		IsSystem:    true,
	}
	require.NoError(t, db.Create(seq).Error)
	for i := range steps {
		steps[i].SequenceID = seq.ID
		steps[i].IsActive = true
		require.NoError(t, db.Create(&steps[i]).Error)
	}
	return seq
}

func createTestEnrollment(t *testing.T, db *gorm.DB, user *models.User, seq *models.Sequence, enrolledAt time.Time) *models.Enrollment {
	t.Helper()
	enrollment := &models.Enrollment{
		UserID:      user.ID,
		SequenceID:  seq.ID,
		TriggerType: seq.TriggerType,
		Status:      models.EnrollmentActive,
		EnrolledAt:  enrolledAt,
	}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records dispatches and can be told to fail
type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentEmail
	failWith error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMailer) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

var errSMTPDown = errors.New("smtp connection refused")

// fixedClock makes schedulers and enrollers deterministic in tests
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestScheduler(db *gorm.DB, mailer Mailer, clock *fixedClock) *Scheduler {
	s := NewScheduler(db, mailer, testLogger(), "https://app.test")
	s.Now = clock.Now
	return s
}

func newTestEnroller(db *gorm.DB, clock *fixedClock) *Enroller {
	e := NewEnroller(db, testLogger())
	if clock != nil {
		e.Now = clock.Now
	}
	return e
}
