package models

import "time"

type NotificationType string

const (
	NotificationReportStatus NotificationType = "REPORT_STATUS"
	NotificationMessage      NotificationType = "MESSAGE"
)

// Notification records that a user should learn about a status change or a
// new message. Only Seen ever changes after creation.
type Notification struct {
	ID   uint             `gorm:"primaryKey" json:"id"`
	Type NotificationType `gorm:"size:16;not null" json:"type"`

	// PreviousStatus and NewStatus are set only for REPORT_STATUS.
	PreviousStatus *ReportStatus `gorm:"size:32" json:"previous_status,omitempty"`
	NewStatus      *ReportStatus `gorm:"size:32" json:"new_status,omitempty"`

	UserID uint  `gorm:"not null;index:idx_notification_user_seen" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ReportID uint    `gorm:"not null;index" json:"report_id"`
	Report   *Report `gorm:"foreignKey:ReportID" json:"report,omitempty"`

	// MessageID is set only for MESSAGE.
	MessageID *uint    `gorm:"index" json:"message_id,omitempty"`
	Message   *Message `gorm:"foreignKey:MessageID" json:"message,omitempty"`

	Seen      bool      `gorm:"not null;default:false;index:idx_notification_user_seen" json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}
