package domain

import "time"

// Role enumerates CRM roles, ordered by privilege.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSalesManager Role = "sales_manager"
	RoleSalesperson  Role = "salesperson"
)

// Permission names a capability granted through roles.
type Permission string

const (
	PermissionLeadsRead      Permission = "leads:read"
	PermissionLeadsWrite     Permission = "leads:write"
	PermissionLeadsDelete    Permission = "leads:delete"
	PermissionReportsRead    Permission = "reports:read"
	PermissionUsersManage    Permission = "users:manage"
	PermissionSettingsManage Permission = "settings:manage"
)

// User is a member of the CRM user directory. Credentials are stored apart
// from the directory entry.
type User struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Roles       []Role       `json:"roles"`
	Permissions []Permission `json:"permissions"`
	Active      bool         `json:"active"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
