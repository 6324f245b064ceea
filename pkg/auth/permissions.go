package auth

import "strings"

// PermissionAllows reports whether granted covers required. A grant matches
// exactly, as a resource wildcard ("orders:*"), or as the global wildcard
// ("*"). Required permissions use the "resource:action" form.
func PermissionAllows(granted, required string) bool {
	granted = strings.TrimSpace(granted)
	required = strings.TrimSpace(required)
	if granted == "" || required == "" {
		return false
	}
	if granted == "*" || granted == required {
		return true
	}
	if resource, ok := strings.CutSuffix(granted, ":*"); ok {
		return strings.HasPrefix(required, resource+":")
	}
	return false
}

// AnyPermissionAllows reports whether any grant in the set covers required.
func AnyPermissionAllows(granted []string, required string) bool {
	for _, g := range granted {
		if PermissionAllows(g, required) {
			return true
		}
	}
	return false
}
