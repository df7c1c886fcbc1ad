package models

import "time"

// Message is an immutable entry either in a chat thread (ThreadID and
// ReceiverID set) or in the flat comment thread of a report.
type Message struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	ReportID uint    `gorm:"not null;index:idx_report_msg" json:"report_id"`
	Report   *Report `gorm:"foreignKey:ReportID" json:"report,omitempty"`

	ThreadID *uint `gorm:"index" json:"thread_id,omitempty"`

	SenderID   uint  `gorm:"not null;index" json:"sender_id"`
	Sender     *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID *uint `gorm:"index" json:"receiver_id,omitempty"`
	Receiver   *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	Text   string    `gorm:"type:text;not null" json:"text"`
	SentAt time.Time `gorm:"not null;index:idx_report_msg" json:"sent_at"`
}

// Involves reports whether userID sent or received the message.
func (m *Message) Involves(userID uint) bool {
	return m.SenderID == userID || (m.ReceiverID != nil && *m.ReceiverID == userID)
}
