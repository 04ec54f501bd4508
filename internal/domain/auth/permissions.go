package auth

import "context"

const (
	RoleAdmin    = "ADMIN"
	RoleHR       = "HR"
	RoleLeader   = "LEADER"
	RoleEmployee = "EMPLOYEE"
)

const (
	PermUsersRead        = "users.read"
	PermUsersWrite       = "users.write"
	PermBandsWrite       = "bands.write"
	PermTeamsRead        = "teams.read"
	PermTeamsWrite       = "teams.write"
	PermCompetencyRead   = "competency.read"
	PermCompetencyWrite  = "competency.write"
	PermCyclesManage     = "assessment.cycles.manage"
	PermAssessmentRead   = "assessment.read"
	PermAssessmentWrite  = "assessment.write"
	PermAssessmentReport = "assessment.report"
	PermRequestsRead     = "requests.read"
	PermRequestsWrite    = "requests.write"
	PermRequestsApprove  = "requests.approve"
	PermTimesheetRead    = "timesheet.read"
	PermTimesheetTeam    = "timesheet.team"
	PermEmailsManage     = "emails.manage"
	PermProfileWrite     = "profile.write"
	PermProfileReview    = "profile.review"
	PermCVGenerate       = "cv.generate"
	PermAuditRead        = "audit.read"
	PermMetricsRead      = "metrics.read"
	PermSystemManage     = "system.manage"
)

var DefaultRoles = []string{RoleAdmin, RoleHR, RoleLeader, RoleEmployee}

var DefaultPermissions = []string{
	PermUsersRead,
	PermUsersWrite,
	PermBandsWrite,
	PermTeamsRead,
	PermTeamsWrite,
	PermCompetencyRead,
	PermCompetencyWrite,
	PermCyclesManage,
	PermAssessmentRead,
	PermAssessmentWrite,
	PermAssessmentReport,
	PermRequestsRead,
	PermRequestsWrite,
	PermRequestsApprove,
	PermTimesheetRead,
	PermTimesheetTeam,
	PermEmailsManage,
	PermProfileWrite,
	PermProfileReview,
	PermCVGenerate,
	PermAuditRead,
	PermMetricsRead,
	PermSystemManage,
}

var employeePermissions = []string{
	PermUsersRead,
	PermTeamsRead,
	PermCompetencyRead,
	PermAssessmentRead,
	PermAssessmentWrite,
	PermRequestsRead,
	PermRequestsWrite,
	PermTimesheetRead,
	PermProfileWrite,
	PermCVGenerate,
}

var RolePermissions = map[string][]string{
	RoleEmployee: employeePermissions,
	RoleLeader: append(append([]string{}, employeePermissions...),
		PermRequestsApprove,
		PermTimesheetTeam,
	),
	RoleHR: append(append([]string{}, employeePermissions...),
		PermUsersWrite,
		PermBandsWrite,
		PermTeamsWrite,
		PermCompetencyWrite,
		PermCyclesManage,
		PermAssessmentReport,
		PermRequestsApprove,
		PermTimesheetTeam,
		PermEmailsManage,
		PermProfileReview,
		PermAuditRead,
	),
	RoleAdmin: DefaultPermissions,
}

// IsReviewer reports whether the role has organisation-wide oversight
// (ADMIN and HR).
func IsReviewer(roleName string) bool {
	return roleName == RoleAdmin || roleName == RoleHR
}

func ValidRole(roleName string) bool {
	for _, role := range DefaultRoles {
		if role == roleName {
			return true
		}
	}
	return false
}

// StaticPermissions answers permission checks from RolePermissions keyed by
// role name. It backs tests and deployments that have not seeded the tables.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, roleName, permission string) (bool, error) {
	for _, perm := range RolePermissions[roleName] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
