package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/leadflow/internal/domain"
	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

// roleRank orders roles; a higher rank includes everything below it.
var roleRank = map[domain.Role]int{
	domain.RoleSalesperson:  1,
	domain.RoleSalesManager: 2,
	domain.RoleAdmin:        3,
}

var rolePermissions = map[domain.Role][]domain.Permission{
	domain.RoleAdmin: {
		domain.PermissionLeadsRead,
		domain.PermissionLeadsWrite,
		domain.PermissionLeadsDelete,
		domain.PermissionReportsRead,
		domain.PermissionUsersManage,
		domain.PermissionSettingsManage,
	},
	domain.RoleSalesManager: {
		domain.PermissionLeadsRead,
		domain.PermissionLeadsWrite,
		domain.PermissionLeadsDelete,
		domain.PermissionReportsRead,
	},
	domain.RoleSalesperson: {
		domain.PermissionLeadsRead,
		domain.PermissionLeadsWrite,
	},
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role domain.Role) bool {
	_, ok := roleRank[role]
	return ok
}

// PermissionsFor returns the union of permissions granted by roles, in a
// stable order.
func PermissionsFor(roles []domain.Role) []domain.Permission {
	seen := make(map[domain.Permission]struct{})
	out := make([]domain.Permission, 0)
	for _, role := range roles {
		for _, perm := range rolePermissions[role] {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}

// HasRole reports whether the user holds role exactly.
func HasRole(user *domain.User, role domain.Role) bool {
	if user == nil {
		return false
	}
	for _, r := range user.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission checks explicit grants first, then role grants.
func HasPermission(user *domain.User, perm domain.Permission) bool {
	if user == nil {
		return false
	}
	for _, p := range user.Permissions {
		if p == perm {
			return true
		}
	}
	for _, p := range PermissionsFor(user.Roles) {
		if p == perm {
			return true
		}
	}
	return false
}

// HasRoleOrHigher reports whether any of the user's roles ranks at or above
// role. Unknown roles never qualify.
func HasRoleOrHigher(user *domain.User, role domain.Role) bool {
	if user == nil {
		return false
	}
	want, ok := roleRank[role]
	if !ok {
		return false
	}
	for _, r := range user.Roles {
		if roleRank[r] >= want {
			return true
		}
	}
	return false
}

// RequirePermission ensures the authenticated user holds perm.
func RequirePermission(perm domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !HasPermission(principal.User, perm) {
			return apperrors.NewForbidden("missing permission " + string(perm))
		}
		return c.Next()
	}
}

// RequireRole ensures the authenticated user holds role or a higher one.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !HasRoleOrHigher(principal.User, role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
