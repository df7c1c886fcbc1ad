package models

import "time"

// ChatThread is a private two-party conversation about one report.
// Participants are stored ordered (User1ID < User2ID) so the unique index
// covers the unordered pair.
type ChatThread struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	ReportID uint    `gorm:"not null;uniqueIndex:idx_thread_pair" json:"report_id"`
	Report   *Report `gorm:"foreignKey:ReportID" json:"report,omitempty"`

	User1ID uint  `gorm:"not null;uniqueIndex:idx_thread_pair;index" json:"user1_id"`
	User1   *User `gorm:"foreignKey:User1ID" json:"user1,omitempty"`
	User2ID uint  `gorm:"not null;uniqueIndex:idx_thread_pair;index" json:"user2_id"`
	User2   *User `gorm:"foreignKey:User2ID" json:"user2,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OrderedPair returns a and b with the smaller id first.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether userID takes part in the thread.
func (t *ChatThread) HasParticipant(userID uint) bool {
	return t.User1ID == userID || t.User2ID == userID
}

// Other returns the participant that is not userID.
func (t *ChatThread) Other(userID uint) uint {
	if t.User1ID == userID {
		return t.User2ID
	}
	return t.User1ID
}
