package models

import (
	"sort"
	"time"
)

// Capability is an atomic permitted action scoped to a resource type.
// Capabilities are immutable once seeded and globally unique by name.
type Capability string

const (
	CapFolderRead  Capability = "folder:read"
	CapFolderWrite Capability = "folder:write"
	CapFolderAdmin Capability = "folder:admin"
)

// RoleScope names the resource kind a role applies to. Only folder scope is
// used today.
type RoleScope string

const ScopeFolder RoleScope = "folder"

// Role is a named bundle of capabilities. System roles are seeded at deploy
// time and immutable; (Name, Scope) is unique.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Scope     RoleScope `json:"scope"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

// System role names.
const (
	RoleViewer = "Viewer"
	RoleEditor = "Editor"
	RoleAdmin  = "Admin"
)

// SubjectKind discriminates who holds a grant.
type SubjectKind string

const (
	SubjectUser SubjectKind = "user"
	SubjectTeam SubjectKind = "team"
)

// Grant associates a subject (user or team, never both) with a role on a
// folder. (subject, folder, role) is unique; a subject may hold several
// distinct roles on the same folder and their capabilities are unioned.
type Grant struct {
	ID          string      `json:"id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	FolderID    string      `json:"folder_id"`
	RoleName    string      `json:"role_name"`
	GrantedBy   string      `json:"granted_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CapabilitySet is the aggregate of capabilities a subject holds on a folder.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Add inserts c into the set.
func (s CapabilitySet) Add(c Capability) {
	s[c] = struct{}{}
}

// Union merges other into s.
func (s CapabilitySet) Union(other CapabilitySet) {
	for c := range other {
		s[c] = struct{}{}
	}
}

// Equal reports whether both sets hold exactly the same capabilities.
func (s CapabilitySet) Equal(other CapabilitySet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if _, ok := other[c]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the capabilities in sorted order for stable output.
func (s CapabilitySet) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
