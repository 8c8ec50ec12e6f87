package repositories

import (
	"context"

	"lodestar/internal/domain/models"
)

// CatalogRepository persists the seeded permission catalog. All Ensure
// methods are idempotent inserts by natural key and safe to run concurrently
// from multiple processes.
type CatalogRepository interface {
	EnsureCapability(ctx context.Context, name models.Capability) error
	EnsureRole(ctx context.Context, name string, scope models.RoleScope) error
	EnsureRoleCapability(ctx context.Context, roleName string, scope models.RoleScope, capability models.Capability) error

	// CapabilitiesForRoles resolves the union of capabilities bundled by the
	// named folder-scoped roles.
	CapabilitiesForRoles(ctx context.Context, roleNames []string) (models.CapabilitySet, error)
}

// GrantRepository is the grant store: (subject, folder, role) associations.
type GrantRepository interface {
	// Create inserts a grant. Inserting an already-held (subject, folder,
	// role) triple is a no-op success, not an error.
	Create(ctx context.Context, grant *models.Grant) error

	// Delete removes a grant by its natural key. Deleting an absent grant
	// returns ErrNotFound.
	Delete(ctx context.Context, kind models.SubjectKind, subjectID, folderID, roleName string) error

	// RolesForUserOnFolder returns role names directly granted to the user.
	RolesForUserOnFolder(ctx context.Context, userID, folderID string) ([]string, error)

	// RolesForTeamsOnFolder returns role names granted to any of the teams.
	RolesForTeamsOnFolder(ctx context.Context, teamIDs []string, folderID string) ([]string, error)

	// ListForFolder returns every grant on a folder, for sharing UIs.
	ListForFolder(ctx context.Context, folderID string) ([]models.Grant, error)

	// DeleteForFolder removes all grants on a folder (folder deletion).
	DeleteForFolder(ctx context.Context, folderID string) error
}

// MembershipRepository resolves team membership. It is the authoritative
// Membership Resolver behind the evaluator; callers may bypass it with a
// cached team-id hint.
type MembershipRepository interface {
	TeamsForUser(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
	AddMember(ctx context.Context, m *models.TeamMembership) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

// TeamRepository manages team rows.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	Delete(ctx context.Context, id string) error
}
