// Package authz evaluates requester privilege from the opaque access-group
// list carried on a user token. All checks fail closed: a nil token or a
// missing group list never grants access.
package authz

import (
	"strings"

	"github.com/amberflux/lorepo"
)

const (
	RoleAdmin    = "admin"
	RoleEditor   = "editor"
	RoleCurator  = "curator"
	RoleReviewer = "reviewer"
)

var privilegedRoles = map[string]bool{
	RoleAdmin:    true,
	RoleEditor:   true,
	RoleCurator:  true,
	RoleReviewer: true,
}

// ParseAccessGroup splits an access-group entry into its role prefix and
// collection suffix. Unscoped entries return an empty collection.
func ParseAccessGroup(entry string) (role string, collection string) {
	role, collection, _ = strings.Cut(entry, "@")
	return role, collection
}

// IsPrivileged reports whether the requester holds any admin, editor, curator
// or reviewer role, scoped or not.
func IsPrivileged(requester *lorepo.UserToken) bool {
	if requester == nil || requester.AccessGroups == nil {
		return false
	}
	for _, entry := range requester.AccessGroups {
		role, _ := ParseAccessGroup(entry)
		if privilegedRoles[role] {
			return true
		}
	}
	return false
}

func hasGroup(requester *lorepo.UserToken, group string) bool {
	if requester == nil {
		return false
	}
	for _, entry := range requester.AccessGroups {
		if entry == group {
			return true
		}
	}
	return false
}

func IsAdmin(requester *lorepo.UserToken) bool {
	return hasGroup(requester, RoleAdmin)
}

func IsEditor(requester *lorepo.UserToken) bool {
	return hasGroup(requester, RoleEditor)
}

func IsAdminOrEditor(requester *lorepo.UserToken) bool {
	return IsAdmin(requester) || IsEditor(requester)
}

// HasReadAccessByCollection reports whether the requester may read in-review
// objects within the named collection. Admin and editor access is unscoped;
// curator and reviewer access must name the exact collection.
func HasReadAccessByCollection(requester *lorepo.UserToken, collection string) bool {
	if IsAdminOrEditor(requester) {
		return true
	}
	return hasGroup(requester, RoleCurator+"@"+collection) ||
		hasGroup(requester, RoleReviewer+"@"+collection)
}

// AccessGroupCollections collects the collection suffix of every scoped
// access-group entry. Unscoped roles contribute nothing.
func AccessGroupCollections(requester *lorepo.UserToken) []string {
	if requester == nil {
		return nil
	}
	var collections []string
	for _, entry := range requester.AccessGroups {
		_, collection := ParseAccessGroup(entry)
		if collection != "" {
			collections = append(collections, collection)
		}
	}
	return collections
}
