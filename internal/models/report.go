package models

import (
	"time"

	"github.com/lib/pq"
)

// ReportStatus is a state of the report lifecycle.
type ReportStatus string

const (
	StatusSubmitted          ReportStatus = "SUBMITTED"
	StatusCategorized        ReportStatus = "CATEGORIZED"
	StatusAssigned           ReportStatus = "ASSIGNED"
	StatusRejected           ReportStatus = "REJECTED"
	StatusExternallyAssigned ReportStatus = "EXTERNALLY_ASSIGNED"
	StatusInProgress         ReportStatus = "IN_PROGRESS"
	StatusResolved           ReportStatus = "RESOLVED"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusCategorized, StatusAssigned, StatusRejected,
		StatusExternallyAssigned, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s ReportStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusResolved
}

// Ptr returns a pointer to a copy of s.
func (s ReportStatus) Ptr() *ReportStatus { return &s }

// Office is a municipal technical office that handles one or more categories.
type Office struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:128;uniqueIndex;not null" json:"name"`
}

// Category classifies a report and routes it to an office.
type Category struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"size:128;uniqueIndex;not null" json:"name"`
	OfficeID *uint   `gorm:"index" json:"office_id,omitempty"`
	Office   *Office `gorm:"foreignKey:OfficeID" json:"office,omitempty"`
}

// Report is an issue filed by a citizen. Status and assignment change only
// through the workflow engine.
type Report struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Latitude    float64        `gorm:"not null" json:"latitude"`
	Longitude   float64        `gorm:"not null" json:"longitude"`
	PhotoURLs   pq.StringArray `gorm:"type:text[]" json:"photo_urls"`
	Anonymous   bool           `gorm:"not null;default:false" json:"anonymous"`

	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Status          ReportStatus `gorm:"size:32;not null;index" json:"status"`
	RejectionReason string       `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedByID uint  `gorm:"not null;index" json:"created_by_id,omitempty"`
	CreatedBy   *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	AssignedToID *uint `gorm:"index" json:"assigned_to_id"`
	AssignedTo   *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`

	// SupervisorID is the technical staff member who made the external assignment.
	SupervisorID *uint `gorm:"index" json:"supervisor_id"`
	Supervisor   *User `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`

	Version   uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAssignee reports whether userID is the recorded external maintainer.
func (r *Report) IsAssignee(userID uint) bool {
	return r.AssignedToID != nil && *r.AssignedToID == userID
}

// IsSupervisor reports whether userID made the external assignment.
func (r *Report) IsSupervisor(userID uint) bool {
	return r.SupervisorID != nil && *r.SupervisorID == userID
}

// RedactFor hides the creator of an anonymous report from readers other
// than the creator and municipal staff. Call it on response copies only.
func (r *Report) RedactFor(a Actor) {
	if r == nil || !r.Anonymous || a.Role.IsStaff() || r.CreatedByID == a.ID {
		return
	}
	r.CreatedByID = 0
	r.CreatedBy = nil
}

// VisibleTo reports whether the actor may read the report: its creator, the
// assignee, the supervisor, or any municipal staff member.
func (r *Report) VisibleTo(a Actor) bool {
	return r.CreatedByID == a.ID || r.IsAssignee(a.ID) || r.IsSupervisor(a.ID) || a.Role.IsStaff()
}
