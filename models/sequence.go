package models

import "gorm.io/gorm"

// Trigger types that cause enrollment into a sequence
const (
	TriggerMiniDiplomaStarted   = "mini_diploma_started"
	TriggerMiniDiplomaCompleted = "mini_diploma_completed"
	TriggerUnsubscribed         = "unsubscribed"
)

// Sequence represents a named drip campaign tied to a lifecycle trigger
type Sequence struct {
	gorm.Model

	// Slug is the stable identity across re-seeds; the seeder finds-or-creates
	// by slug and must never duplicate a sequence.
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	TriggerType string `gorm:"not null;index" json:"trigger_type"`
	Niche       string `gorm:"not null;index" json:"niche"`

	IsActive bool `gorm:"default:true" json:"is_active"`
	IsSystem bool `gorm:"default:false" json:"is_system"` // protects seeded campaigns from deletion
	Priority int  `gorm:"default:0" json:"priority"`      // tie-breaker when several sequences match a trigger

	// Relations
	Emails []SequenceEmail `gorm:"foreignKey:SequenceID;constraint:OnDelete:CASCADE" json:"emails,omitempty"`
}

// SequenceEmail represents one step within a sequence. StepOrder is the
// stable sent-tracking key: re-seeding replaces step content wholesale but
// must reuse the same order values so in-flight enrollments keep their place.
type SequenceEmail struct {
	gorm.Model
	SequenceID uint `gorm:"not null;index;uniqueIndex:idx_sequence_step_order" json:"sequence_id"`

	StepOrder  int `gorm:"not null;uniqueIndex:idx_sequence_step_order" json:"step_order"`
	DelayDays  int `gorm:"not null;default:0" json:"delay_days"`
	DelayHours int `gorm:"not null;default:0" json:"delay_hours"`

	Subject string `gorm:"not null" json:"subject"`
	Body    string `gorm:"type:text" json:"body"`

	// Optional pre-generated audio asset rendered into the body as a link
	AudioURL string `json:"audio_url,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Denormalized stats
	SentCount int `gorm:"default:0" json:"sent_count"`
}

// Delay returns the step offset relative to the enrollment epoch in hours
func (se *SequenceEmail) Delay() int {
	return se.DelayDays*24 + se.DelayHours
}
