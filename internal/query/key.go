package query

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Key identifies a cache entry: the entity kind plus its scope parameters.
// Scope segments are joined with "/" so "list" is a prefix of "list/3".
type Key struct {
	Entity string `json:"entity"`
	Scope  string `json:"scope,omitempty"`
}

// NewKey builds a key from an entity kind and scope parts.
func NewKey(entity string, scope ...interface{}) Key {
	parts := make([]string, 0, len(scope))
	for _, s := range scope {
		parts = append(parts, fmt.Sprint(s))
	}
	return Key{Entity: entity, Scope: strings.Join(parts, "/")}
}

// String renders the key as "entity:scope".
func (k Key) String() string {
	if k.Scope == "" {
		return k.Entity
	}
	return k.Entity + ":" + k.Scope
}

// Matches reports whether k falls under prefix: same entity, and prefix scope
// empty, equal, or a leading run of whole segments. The zero Key matches
// everything.
func (k Key) Matches(prefix Key) bool {
	if prefix.Entity == "" {
		return true
	}
	if k.Entity != prefix.Entity {
		return false
	}
	if prefix.Scope == "" || k.Scope == prefix.Scope {
		return true
	}
	return strings.HasPrefix(k.Scope, prefix.Scope+"/")
}
