package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrder = "CREATE_ORDER"
	ActionUpdateOrder = "UPDATE_ORDER"
	ActionDeleteOrder = "DELETE_ORDER"
	ActionUploadPOD   = "UPLOAD_POD"
	ActionValidatePOD = "VALIDATE_POD"
)

// AuditLog tracks Who, What, and When for order mutations
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(64);index" json:"user_id"` // empty for anonymous callers
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(64);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
