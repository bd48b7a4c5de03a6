package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses. All transitions are one-way; a finished enrollment is
// never reopened, a later trigger creates a fresh row instead.
const (
	EnrollmentActive       = "active"
	EnrollmentCompleted    = "completed"
	EnrollmentSwitched     = "switched"
	EnrollmentUnsubscribed = "unsubscribed"
)

// Send statuses for a single step dispatch
const (
	SendStatusSending = "sending"
	SendStatusSent    = "sent"
)

// Enrollment binds one student to one sequence. EnrolledAt is the scheduling
// epoch: every step offset is computed relative to it. Rows are retained for
// audit after completion, switch-away and unsubscribe.
type Enrollment struct {
	gorm.Model
	UserID     uint `gorm:"not null;index:idx_enrollment_user_status" json:"user_id"`
	SequenceID uint `gorm:"not null;index" json:"sequence_id"`

	TriggerType string `gorm:"not null;index" json:"trigger_type"`

	Status     string    `gorm:"default:'active';index:idx_enrollment_user_status" json:"status"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`

	// Denormalized progress, authoritative state is the Sends set
	SentCount     int        `gorm:"default:0" json:"sent_count"`
	LastSentOrder int        `gorm:"default:0" json:"last_sent_order"`
	LastSentAt    *time.Time `json:"last_sent_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	// Relations
	User     User           `json:"-"`
	Sequence Sequence       `json:"-"`
	Sends    []SequenceSend `gorm:"foreignKey:EnrollmentID" json:"sends,omitempty"`
}

// SequenceSend records one step dispatched (or being dispatched) for an
// enrollment. The composite unique index is the at-most-once guarantee:
// concurrent sweeps race to insert the claim row and the loser gets a
// duplicate-key error instead of a second send.
type SequenceSend struct {
	gorm.Model
	EnrollmentID uint `gorm:"not null;index;uniqueIndex:idx_send_enrollment_step" json:"enrollment_id"`
	StepOrder    int  `gorm:"not null;uniqueIndex:idx_send_enrollment_step" json:"step_order"`

	Status    string     `gorm:"default:'sending'" json:"status"`
	MessageID string     `json:"message_id"`
	Subject   string     `json:"subject"`
	SentAt    *time.Time `json:"sent_at,omitempty"`

	// Relations
	Enrollment Enrollment `json:"-"`
}
