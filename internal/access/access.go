// Package access contains the permission evaluator for the user directory.
//
// Every function here is a pure decision over the acting principal and the
// target record (or query key): no I/O, no clock, no store access. The
// directory service asks these functions before touching the repository, so
// the full role-vs-role matrix lives in one auditable place.
package access

import (
	"orgdir/internal/entity"
)

// ListScope describes which slice of the directory a principal may list.
type ListScope int

const (
	// ScopeSelf limits the listing to the principal's own record.
	ScopeSelf ListScope = iota
	// ScopeTeam limits the listing to records sharing the principal's team.
	ScopeTeam
	// ScopeAll returns every record unredacted.
	ScopeAll
	// ScopeAllRedacted returns every record projected to the safe subset.
	ScopeAllRedacted
)

// ListScopeFor resolves the find-all scope for a principal. Roles outside the
// enumeration fall back to self-only visibility.
func ListScopeFor(principal *entity.DbUser) ListScope {
	switch {
	case principal.IsVIP():
		return ScopeAllRedacted
	case principal.CanManageUsers():
		return ScopeAll
	case principal.IsTeamLead():
		return ScopeTeam
	default:
		return ScopeSelf
	}
}

// CanReadUser decides the read-one rule. Self access is always permitted.
func CanReadUser(principal, target *entity.DbUser) bool {
	if principal == nil || target == nil {
		return false
	}
	if principal.ID == target.ID {
		return true
	}
	if principal.IsVIP() || principal.CanManageUsers() {
		return true
	}
	if principal.IsTeamLead() {
		return target.TeamID == principal.TeamID
	}
	return false
}

// NeedsRedaction reports whether a permitted read must strip the credential
// hash from the result. Only vip reads of other records are redacted.
func NeedsRedaction(principal, target *entity.DbUser) bool {
	return principal != nil && target != nil &&
		principal.IsVIP() && principal.ID != target.ID
}

// CanUpdateUser decides the generic update rule against the pre-patch target.
func CanUpdateUser(principal, target *entity.DbUser) bool {
	if principal == nil || target == nil {
		return false
	}
	if principal.ID == target.ID {
		return true
	}
	if principal.IsAdmin() {
		return true
	}
	if principal.IsManager() {
		return target.IsTeamMember() || target.IsTeamLead()
	}
	if principal.IsTeamLead() {
		return target.TeamID == principal.TeamID && target.IsTeamMember()
	}
	// vip and team_member may only touch their own record, handled above.
	return false
}

// CanDeleteUser decides the delete rule: admin only, never oneself.
func CanDeleteUser(principal, target *entity.DbUser) bool {
	if principal == nil || target == nil {
		return false
	}
	return principal.IsAdmin() && principal.ID != target.ID
}

// CanChangeStatus decides the status-change rule: manage-users capability,
// never against oneself.
func CanChangeStatus(principal, target *entity.DbUser) bool {
	if principal == nil || target == nil {
		return false
	}
	return principal.CanManageUsers() && principal.ID != target.ID
}

// CanChangeRole decides the role-change rule: admin only, never oneself.
func CanChangeRole(principal, target *entity.DbUser) bool {
	if principal == nil || target == nil {
		return false
	}
	return principal.IsAdmin() && principal.ID != target.ID
}

// CanAccessTeam decides the team-members query. The queried team does not have
// to exist: this gates a filter, not a record.
func CanAccessTeam(principal *entity.DbUser, teamID string) bool {
	if principal == nil {
		return false
	}
	if principal.IsAdmin() || principal.IsVIP() || principal.IsManager() {
		return true
	}
	if principal.IsTeamLead() {
		return principal.TeamID == teamID
	}
	return false
}

// CanAccessManager decides the subordinates query. Principals without broad
// access may still list their own manager's reports.
func CanAccessManager(principal *entity.DbUser, managerID string) bool {
	if principal == nil {
		return false
	}
	if principal.IsAdmin() || principal.IsVIP() || principal.IsManager() {
		return true
	}
	return principal.ManagerID != "" && principal.ManagerID == managerID
}

// RedactSensitive returns a copy of the record without the credential hash.
func RedactSensitive(u *entity.DbUser) *entity.DbUser {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// SafeProjection returns a copy holding only the fixed safe field subset used
// for the vip list view: id, names, email, role, status, department, position
// and creation time. Everything else is zeroed, credential hash included.
func SafeProjection(u *entity.DbUser) *entity.DbUser {
	if u == nil {
		return nil
	}
	return &entity.DbUser{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		Department: u.Department,
		Position:   u.Position,
		CreatedAt:  u.CreatedAt,
	}
}

// restrictedUpdateColumns are never applied from a vip self-update patch. The
// role and status columns cannot enter through the generic update DTO for any
// role, but the evaluator removes them too so the rule holds on its own.
var restrictedUpdateColumns = []string{"role", "status", "manager_id", "team_id"}

// StripRestrictedFields drops privileged columns from an update patch in
// place. The removal is silent: remaining fields still apply.
func StripRestrictedFields(updates map[string]interface{}) {
	for _, column := range restrictedUpdateColumns {
		delete(updates, column)
	}
}
