package models

// UserRole represents the platform role carried in access tokens.
type UserRole string

const (
	RoleSiteAdmin UserRole = "SITEADMIN"
	RoleManager   UserRole = "MANAGER"
	RoleTeacher   UserRole = "TEACHER"
	RoleStudent   UserRole = "STUDENT"
)

// SiteAdmin reports whether the role bypasses capability checks.
func (r UserRole) SiteAdmin() bool {
	return r == RoleSiteAdmin
}
