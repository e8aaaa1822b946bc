package auth

import (
	"slices"

	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
)

// Permission represents an authorized action
type Permission string

const (
	PermOrgManage      Permission = "org:manage"
	PermMembersInvite  Permission = "members:invite"
	PermMembersManage  Permission = "members:manage"
	PermProjectsCreate Permission = "projects:create"
	PermProjectsManage Permission = "projects:manage"
	PermTemplateEdit   Permission = "standup:template:edit"
)

// RolePermissions maps roles to allowed permissions. Board and standup
// participation is open to every member and carries no permission.
var RolePermissions = map[models.Role][]Permission{
	models.RoleOwner: {
		PermOrgManage,
		PermMembersInvite,
		PermMembersManage,
		PermProjectsCreate,
		PermProjectsManage,
		PermTemplateEdit,
	},
	models.RoleAdmin: {
		PermOrgManage,
		PermMembersInvite,
		PermMembersManage,
		PermProjectsCreate,
		PermProjectsManage,
	},
	models.RoleMember: {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role models.Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}

// RequirePermission checks authorization and returns a forbidden error if the
// principal's role lacks the permission.
func RequirePermission(p *Principal, perm Permission) error {
	if !HasPermission(p.Role, perm) {
		return errs.Forbidden("insufficient permissions")
	}
	return nil
}
