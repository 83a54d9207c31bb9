package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateDonationRequest = "CREATE_DONATION_REQUEST"
	ActionUpdateDonationRequest = "UPDATE_DONATION_REQUEST"
	ActionDeleteDonationRequest = "DELETE_DONATION_REQUEST"
	ActionConfirmDonation       = "CONFIRM_DONATION"
	ActionMarkDone              = "MARK_DONATION_DONE"
	ActionMarkCanceled          = "MARK_DONATION_CANCELED"

	ActionChangeUserRole   = "CHANGE_USER_ROLE"
	ActionChangeUserStatus = "CHANGE_USER_STATUS"

	ActionRecordFund   = "RECORD_FUND"
	ActionDeleteIssue  = "DELETE_ISSUE"
	ActionContribution = "CREATE_CONTRIBUTION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for unattributed actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	ActorEmail string     `gorm:"type:varchar(255);index" json:"actor_email"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
