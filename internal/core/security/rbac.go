// Package security holds the role catalog and the permissions each role grants.
package security

import "slices"

// Role names.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSeller  = "seller"
)

// Permissions.
const (
	PermDashboardView    = "dashboard:view"
	PermArticlesView     = "articles:view"
	PermArticlesWrite    = "articles:write"
	PermInventoryView    = "inventory:view"
	PermInventoryWrite   = "inventory:write"
	PermSalesView        = "sales:view"
	PermSalesWrite       = "sales:write"
	PermSalesAssignOther = "sales:assign_seller"
	PermPurchasesView    = "purchases:view"
	PermPurchasesWrite   = "purchases:write"
	PermReportsView      = "reports:view"
	PermSettingsView     = "settings:view"
	PermSettingsWrite    = "settings:write"
)

var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermDashboardView, PermArticlesView, PermArticlesWrite,
		PermInventoryView, PermInventoryWrite,
		PermSalesView, PermSalesWrite, PermSalesAssignOther,
		PermPurchasesView, PermPurchasesWrite,
		PermReportsView, PermSettingsView, PermSettingsWrite,
	},
	RoleManager: {
		PermDashboardView, PermArticlesView, PermArticlesWrite,
		PermInventoryView, PermInventoryWrite,
		PermSalesView, PermSalesWrite, PermSalesAssignOther,
		PermPurchasesView, PermPurchasesWrite,
		PermReportsView, PermSettingsView,
	},
	RoleSeller: {
		PermDashboardView, PermArticlesView, PermInventoryView,
		PermSalesView, PermSalesWrite,
	},
}

// IsValidRole reports whether role is part of the catalog.
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsFor returns a copy of the permissions granted to role.
func PermissionsFor(role string) []string {
	return slices.Clone(rolePermissions[role])
}

// Catalog returns every known permission, sorted.
func Catalog() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, perms := range rolePermissions {
		for _, p := range perms {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}
