package models

import "gorm.io/gorm"

// Unsubscribe represents an opt-out request, kept separately from the user
// flag for audit (who, when, from where)
type Unsubscribe struct {
	gorm.Model
	Email  string `gorm:"not null;index" json:"email"`
	UserID *uint  `json:"user_id,omitempty"`

	Reason    string `json:"reason"`
	Source    string `json:"source"` // link, api, bounce
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	// Relations
	User *User `json:"user,omitempty"`
}

// WebhookEvent is an audit trail of every lifecycle event the engine
// consumed, useful for replay and for debugging duplicate deliveries
type WebhookEvent struct {
	gorm.Model
	EventID   string `gorm:"index" json:"event_id"`
	EventType string `gorm:"not null;index" json:"event_type"`
	Email     string `gorm:"not null;index" json:"email"`
	Payload   string `gorm:"type:text" json:"payload"`
	Outcome   string `json:"outcome"` // enrolled, duplicate, switched, ignored
}
