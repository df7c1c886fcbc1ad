package models

// Role is the authorization role of a user, as asserted by the identity provider.
type Role string

const (
	RoleCitizen                Role = "CITIZEN"
	RolePublicRelationsOfficer Role = "PUBLIC_RELATIONS_OFFICER"
	RoleMunicipalAdministrator Role = "MUNICIPAL_ADMINISTRATOR"
	RoleTechnicalStaffMember   Role = "TECHNICAL_STAFF_MEMBER"
	RoleExternalMaintainer     Role = "EXTERNAL_MAINTAINER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RolePublicRelationsOfficer, RoleMunicipalAdministrator,
		RoleTechnicalStaffMember, RoleExternalMaintainer:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to municipal staff with
// report-wide visibility. External maintainers are not staff.
func (r Role) IsStaff() bool {
	return r == RolePublicRelationsOfficer || r == RoleMunicipalAdministrator || r == RoleTechnicalStaffMember
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// Is reports whether the actor has one of the given roles.
func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
