package models

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/textutil"
)

// Role is an admin console role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleReviewer   Role = "reviewer"
	RoleReadOnly   Role = "readonly"
)

// AllRoles lists every role in seniority order.
var AllRoles = []Role{RoleAdmin, RoleSupervisor, RoleReviewer, RoleReadOnly}

func (r Role) IsValid() bool {
	return slices.Contains(AllRoles, r)
}

// ParseRole validates a raw role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

// Permission names one gated admin capability.
type Permission string

const (
	PermViewDashboard         Permission = "view_dashboard"
	PermViewSubmissions       Permission = "view_submissions"
	PermViewSubmissionDetails Permission = "view_submission_details"
	PermApproveSubmissions    Permission = "approve_submissions"
	PermRejectSubmissions     Permission = "reject_submissions"
	PermFlagSubmissions       Permission = "flag_submissions"
	PermManageUsers           Permission = "manage_users"
	PermManageRoles           Permission = "manage_roles"
	PermViewReports           Permission = "view_reports"
	PermExportData            Permission = "export_data"
)

// PermissionInfo describes a permission for the role editor.
type PermissionInfo struct {
	Name        Permission `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
}

// Catalogue is the fixed set of permissions known to the console.
var Catalogue = []PermissionInfo{
	{PermViewDashboard, "View the admin dashboard", "general"},
	{PermViewSubmissions, "View the submission list", "submissions"},
	{PermViewSubmissionDetails, "View submission details and images", "submissions"},
	{PermApproveSubmissions, "Approve submissions", "submissions"},
	{PermRejectSubmissions, "Reject submissions", "submissions"},
	{PermFlagSubmissions, "Flag submissions for follow-up", "submissions"},
	{PermManageUsers, "Create, edit and delete admin users", "administration"},
	{PermManageRoles, "Edit role permissions", "administration"},
	{PermViewReports, "View reports", "reports"},
	{PermExportData, "Export submission data", "reports"},
}

// IsKnownPermission reports whether p appears in the catalogue.
func IsKnownPermission(p Permission) bool {
	for _, info := range Catalogue {
		if info.Name == p {
			return true
		}
	}
	return false
}

// RolePermissions is the permission set granted to one role.
type RolePermissions struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
	Description string       `json:"description"`
}

// Has reports whether the set contains p.
func (rp RolePermissions) Has(p Permission) bool {
	return slices.Contains(rp.Permissions, p)
}

// NormalizePermissions trims and de-duplicates raw names and rejects unknown ones.
func NormalizePermissions(raw []string) ([]Permission, error) {
	names := textutil.DedupeFold(raw)
	out := make([]Permission, 0, len(names))
	for _, n := range names {
		p := Permission(n)
		if !IsKnownPermission(p) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown permission: "+n)
		}
		out = append(out, p)
	}
	return out, nil
}

// DefaultRolePermissions is the role table installed when none is stored.
func DefaultRolePermissions() []RolePermissions {
	all := make([]Permission, 0, len(Catalogue))
	for _, info := range Catalogue {
		all = append(all, info.Name)
	}
	supervisor := slices.DeleteFunc(slices.Clone(all), func(p Permission) bool {
		return p == PermManageUsers || p == PermManageRoles
	})
	return []RolePermissions{
		{Role: RoleAdmin, Permissions: all, Description: "Full access to every console feature"},
		{Role: RoleSupervisor, Permissions: supervisor, Description: "Reviews submissions and reports without user or role management"},
		{Role: RoleReviewer, Permissions: []Permission{
			PermViewDashboard, PermViewSubmissions, PermViewSubmissionDetails,
			PermApproveSubmissions, PermRejectSubmissions, PermFlagSubmissions,
		}, Description: "Reviews and decides submissions"},
		{Role: RoleReadOnly, Permissions: []Permission{
			PermViewDashboard, PermViewSubmissions, PermViewSubmissionDetails,
		}, Description: "Views submissions without acting on them"},
	}
}

// User is an admin console account. PasswordHash never leaves the service.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty"`
}

// Public returns a copy without credentials.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// ValidateEmail checks an address is well formed.
func ValidateEmail(email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
