package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records owner-visible events such as project changes and group formation outcomes.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string   `gorm:"size:36;index" json:"user_id"`
	ProjectID *string   `gorm:"size:36;index" json:"project_id"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Result    string    `gorm:"size:32;not null" json:"result"`
	IPAddress string    `gorm:"size:64" json:"ip_address"`
	Metadata  string    `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
