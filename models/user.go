package models

import (
	"time"

	"gorm.io/gorm"
)

// Niche values a student can opt into. Each niche has its own copy variant
// of every campaign, but the step schema is identical across niches.
const (
	NicheFunctionalMedicine = "functional_medicine"
	NicheEnergyHealing      = "energy_healing"
	NicheHealthCoach        = "health_coach"
)

// User represents a student on the course platform. The sequencing engine
// only reads profile fields for placeholder substitution; it never mutates
// anything here except the unsubscribe flag.
type User struct {
	gorm.Model

	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Which niche variant of each campaign this student receives. Empty
	// means the student has not picked one yet and matches no campaign.
	Niche string `gorm:"index" json:"niche"`

	// Mini diploma lifecycle
	OptedInAt       *time.Time `json:"opted_in_at"`
	ExamScore       *int       `json:"exam_score,omitempty"`
	ExamCompletedAt *time.Time `json:"exam_completed_at,omitempty"`

	Timezone string `gorm:"default:'UTC'" json:"timezone"`
	Language string `gorm:"default:'en'" json:"language"`

	// Global opt-out; checked before any dispatch
	Unsubscribed   bool       `gorm:"default:false;index" json:"unsubscribed"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`

	// Relations
	Enrollments []Enrollment `gorm:"foreignKey:UserID" json:"enrollments,omitempty"`
}

// FullName returns the display name for logging purposes
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
