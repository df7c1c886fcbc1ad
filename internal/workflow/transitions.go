package workflow

import (
	"civicreport/backend/internal/models"
)

// TransitionKind names a state-changing operation on a report.
type TransitionKind string

const (
	KindSetCategory      TransitionKind = "SET_CATEGORY"
	KindAccept           TransitionKind = "ACCEPT"
	KindReject           TransitionKind = "REJECT"
	KindAssignMaintainer TransitionKind = "ASSIGN_MAINTAINER"
	KindUpdateStatus     TransitionKind = "UPDATE_STATUS"
)

// TransitionRequest carries the payload of a transition. Only the fields the
// kind needs are read.
type TransitionRequest struct {
	Kind         TransitionKind
	CategoryID   *uint
	MaintainerID *uint
	TargetStatus *models.ReportStatus
	Reason       string
}

type rule struct {
	roles   []models.Role
	sources []models.ReportStatus
	// target resolves the new status and reports whether it is reachable.
	target func(req TransitionRequest, current models.ReportStatus) (models.ReportStatus, bool)
	notify bool
}

func fixed(s models.ReportStatus) func(TransitionRequest, models.ReportStatus) (models.ReportStatus, bool) {
	return func(TransitionRequest, models.ReportStatus) (models.ReportStatus, bool) { return s, true }
}

// transitions is the whole lifecycle: who may do what from where.
var transitions = map[TransitionKind]rule{
	KindSetCategory: {
		roles:   []models.Role{models.RolePublicRelationsOfficer, models.RoleMunicipalAdministrator},
		sources: []models.ReportStatus{models.StatusSubmitted, models.StatusCategorized},
		target:  fixed(models.StatusCategorized),
	},
	KindAccept: {
		roles:   []models.Role{models.RolePublicRelationsOfficer},
		sources: []models.ReportStatus{models.StatusCategorized},
		target:  fixed(models.StatusAssigned),
		notify:  true,
	},
	KindReject: {
		roles:   []models.Role{models.RolePublicRelationsOfficer},
		sources: []models.ReportStatus{models.StatusCategorized},
		target:  fixed(models.StatusRejected),
		notify:  true,
	},
	KindAssignMaintainer: {
		roles:   []models.Role{models.RoleTechnicalStaffMember},
		sources: []models.ReportStatus{models.StatusAssigned},
		target:  fixed(models.StatusExternallyAssigned),
		notify:  true,
	},
	KindUpdateStatus: {
		roles:   []models.Role{models.RoleExternalMaintainer, models.RoleTechnicalStaffMember},
		sources: []models.ReportStatus{models.StatusExternallyAssigned, models.StatusInProgress},
		target:  updateTarget,
		notify:  true,
	},
}

// updateTarget allows EXTERNALLY_ASSIGNED -> IN_PROGRESS and
// EXTERNALLY_ASSIGNED|IN_PROGRESS -> RESOLVED.
func updateTarget(req TransitionRequest, current models.ReportStatus) (models.ReportStatus, bool) {
	next := *req.TargetStatus
	switch next {
	case models.StatusInProgress:
		return next, current == models.StatusExternallyAssigned
	case models.StatusResolved:
		return next, true
	}
	return next, false
}

func (r rule) allows(role models.Role) bool {
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (r rule) from(s models.ReportStatus) bool {
	for _, src := range r.sources {
		if src == s {
			return true
		}
	}
	return false
}
