package models

import "lodestar/internal/domain"

// OwnerType discriminates who owns a resource.
type OwnerType string

const (
	OwnerUser OwnerType = "user"
	OwnerTeam OwnerType = "team"
)

// Owner records the single owner of a folder, document or graph. Exactly one
// of UserID/TeamID is set, matching Type. The exclusivity is validated on
// every write path before persistence.
type Owner struct {
	Type   OwnerType `json:"type"`
	UserID *string   `json:"user_id,omitempty"`
	TeamID *string   `json:"team_id,omitempty"`
}

// UserOwner builds a user-owned Owner.
func UserOwner(userID string) Owner {
	return Owner{Type: OwnerUser, UserID: &userID}
}

// TeamOwner builds a team-owned Owner.
func TeamOwner(teamID string) Owner {
	return Owner{Type: OwnerTeam, TeamID: &teamID}
}

// Validate enforces the ownership-exclusivity invariant: exactly one owner
// reference, matching the declared type.
func (o Owner) Validate() error {
	switch o.Type {
	case OwnerUser:
		if o.UserID == nil || *o.UserID == "" {
			return &domain.OwnershipInvariantError{Message: "owner type is user but owner_user_id is empty"}
		}
		if o.TeamID != nil {
			return &domain.OwnershipInvariantError{Message: "owner type is user but owner_team_id is also set"}
		}
	case OwnerTeam:
		if o.TeamID == nil || *o.TeamID == "" {
			return &domain.OwnershipInvariantError{Message: "owner type is team but owner_team_id is empty"}
		}
		if o.UserID != nil {
			return &domain.OwnershipInvariantError{Message: "owner type is team but owner_user_id is also set"}
		}
	default:
		return &domain.OwnershipInvariantError{Message: "owner type must be user or team"}
	}
	return nil
}

// ID returns the populated owner reference.
func (o Owner) ID() string {
	if o.Type == OwnerTeam && o.TeamID != nil {
		return *o.TeamID
	}
	if o.UserID != nil {
		return *o.UserID
	}
	return ""
}
