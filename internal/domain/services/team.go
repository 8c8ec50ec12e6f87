package services

import (
	"context"

	"lodestar/internal/domain/models"
)

// TeamService manages teams and their membership. Only the team owner may
// change membership; membership changes invalidate the affected user's
// cached capabilities so team-inherited grants take effect immediately.
type TeamService interface {
	CreateTeam(ctx context.Context, ownerUserID, name string) (*models.Team, error)
	GetTeam(ctx context.Context, userID, teamID string) (*models.Team, error)
	AddMember(ctx context.Context, actorUserID, teamID, userID string) error
	RemoveMember(ctx context.Context, actorUserID, teamID, userID string) error
	DeleteTeam(ctx context.Context, actorUserID, teamID string) error
}
