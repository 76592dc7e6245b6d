package models

import (
	"fmt"
	"time"
)

// WildcardAction grants every action on the resource it appears under.
const WildcardAction = "*"

// PermissionMap maps a resource name to the set of actions a role may
// perform on it.
type PermissionMap map[string][]string

// Allows reports whether the map grants action on resource. An absent
// resource grants nothing; the wildcard action grants everything on its
// resource.
func (p PermissionMap) Allows(resource, action string) bool {
	actions, ok := p[resource]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action || a == WildcardAction {
			return true
		}
	}
	return false
}

// Validate rejects malformed permission maps before they reach storage.
func (p PermissionMap) Validate() error {
	for resource, actions := range p {
		if resource == "" {
			return fmt.Errorf("permission map: empty resource name")
		}
		for _, a := range actions {
			if a == "" {
				return fmt.Errorf("permission map: empty action for resource %q", resource)
			}
		}
	}
	return nil
}

type Role struct {
	ID          string
	Name        string
	Description *string
	Permissions PermissionMap
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
