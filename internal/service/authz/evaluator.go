package authz

import (
	"context"
	"fmt"
	"log/slog"

	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
	"lodestar/internal/domain/services"
)

// Evaluator is the core access decision engine. It is stateless: every call
// re-derives the subject's effective capability set from the grant store and
// membership resolver, optionally short-circuited by the per (subject,
// folder) cache.
type Evaluator struct {
	grantRepo      repositories.GrantRepository
	membershipRepo repositories.MembershipRepository
	folderRepo     repositories.FolderRepository
	catalog        *Catalog
	cache          services.CapabilityCache // nil disables caching
	logger         *slog.Logger
}

// NewEvaluator creates the access evaluator. cache may be nil.
func NewEvaluator(
	grantRepo repositories.GrantRepository,
	membershipRepo repositories.MembershipRepository,
	folderRepo repositories.FolderRepository,
	catalog *Catalog,
	cache services.CapabilityCache,
	logger *slog.Logger,
) services.AccessEvaluator {
	return &Evaluator{
		grantRepo:      grantRepo,
		membershipRepo: membershipRepo,
		folderRepo:     folderRepo,
		catalog:        catalog,
		cache:          cache,
		logger:         logger,
	}
}

// Decide reports whether the subject holds the required capability on the
// resource, resolving team membership live.
func (e *Evaluator) Decide(ctx context.Context, subjectUserID string, resource models.ResourceRef, required models.Capability) (services.Decision, error) {
	return e.decide(ctx, subjectUserID, nil, resource, required)
}

// DecideWithTeams is Decide with a caller-supplied membership hint. The hint
// is trusted: callers are responsible for its freshness.
func (e *Evaluator) DecideWithTeams(ctx context.Context, subjectUserID string, teamIDs []string, resource models.ResourceRef, required models.Capability) (services.Decision, error) {
	return e.decide(ctx, subjectUserID, teamIDs, resource, required)
}

func (e *Evaluator) decide(ctx context.Context, subjectUserID string, teamIDs []string, resource models.ResourceRef, required models.Capability) (services.Decision, error) {
	decision, err := e.evaluate(ctx, subjectUserID, teamIDs, resource, required)
	if err != nil {
		return decision, err
	}

	e.logger.Debug("access decision",
		"subject", subjectUserID,
		"resource_type", resource.Type,
		"resource_id", resource.ID,
		"required", required,
		"allowed", decision.Allowed,
		"reason", decision.Reason,
	)

	return decision, nil
}

func (e *Evaluator) evaluate(ctx context.Context, subjectUserID string, teamIDs []string, resource models.ResourceRef, required models.Capability) (services.Decision, error) {
	// Un-filed documents and graphs: the direct owner has full implicit
	// access, everyone else is denied regardless of any visibility field.
	if resource.Type != models.ResourceFolder && resource.FolderID == nil {
		owns, err := e.isOwner(ctx, subjectUserID, teamIDs, resource.Owner)
		if err != nil {
			return services.Decision{}, err
		}
		if owns {
			return services.Decision{Allowed: true, Reason: services.ReasonOwner}, nil
		}
		return services.Decision{Allowed: false, Reason: services.ReasonUnfiledDenied}, nil
	}

	folderID := resource.ID
	if resource.Type != models.ResourceFolder {
		folderID = *resource.FolderID
	}

	folder, err := e.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		// Missing folder and denied access look identical to callers of
		// filed-resource reads; the distinct reason is kept for audit.
		return services.Decision{Allowed: false, Reason: services.ReasonUnknownSubject}, err
	}

	caps, err := e.effectiveCapabilities(ctx, subjectUserID, teamIDs, folderID)
	if err != nil {
		return services.Decision{}, err
	}

	if caps.Has(required) {
		return services.Decision{Allowed: true, Reason: services.ReasonGrant}, nil
	}

	// Public folders are readable by any authenticated subject; write and
	// admin still require an explicit grant.
	if folder.Visibility == models.VisibilityPublic && required == models.CapFolderRead {
		return services.Decision{Allowed: true, Reason: services.ReasonPublicRead}, nil
	}

	return services.Decision{Allowed: false, Reason: services.ReasonNoGrant}, nil
}

// isOwner reports whether the subject is the direct owner (or a member of
// the owning team) of an un-filed item.
func (e *Evaluator) isOwner(ctx context.Context, subjectUserID string, teamIDs []string, owner models.Owner) (bool, error) {
	switch owner.Type {
	case models.OwnerUser:
		return owner.UserID != nil && *owner.UserID == subjectUserID, nil
	case models.OwnerTeam:
		if owner.TeamID == nil {
			return false, nil
		}
		if teamIDs != nil {
			for _, id := range teamIDs {
				if id == *owner.TeamID {
					return true, nil
				}
			}
			return false, nil
		}
		member, err := e.membershipRepo.IsMember(ctx, *owner.TeamID, subjectUserID)
		if err != nil {
			return false, fmt.Errorf("resolve team ownership: %w", err)
		}
		return member, nil
	default:
		return false, nil
	}
}

// EffectiveCapabilities returns the subject's aggregate capability set on a
// folder: direct grants unioned with team-inherited grants.
func (e *Evaluator) EffectiveCapabilities(ctx context.Context, subjectUserID, folderID string) (models.CapabilitySet, error) {
	return e.effectiveCapabilities(ctx, subjectUserID, nil, folderID)
}

func (e *Evaluator) effectiveCapabilities(ctx context.Context, subjectUserID string, teamIDs []string, folderID string) (models.CapabilitySet, error) {
	// A caller-supplied membership hint never touches the cache, in either
	// direction: a hint-derived set must not serve later authoritative
	// decisions, and a hinted call must not be answered from one.
	hinted := teamIDs != nil

	if e.cache != nil && !hinted {
		if caps, ok := e.cache.Get(ctx, subjectUserID, folderID); ok {
			return caps, nil
		}
	}

	directRoles, err := e.grantRepo.RolesForUserOnFolder(ctx, subjectUserID, folderID)
	if err != nil {
		return nil, fmt.Errorf("direct grants: %w", err)
	}

	if teamIDs == nil {
		teamIDs, err = e.membershipRepo.TeamsForUser(ctx, subjectUserID)
		if err != nil {
			return nil, fmt.Errorf("resolve memberships: %w", err)
		}
	}

	teamRoles, err := e.grantRepo.RolesForTeamsOnFolder(ctx, teamIDs, folderID)
	if err != nil {
		return nil, fmt.Errorf("team grants: %w", err)
	}

	caps := e.catalog.CapabilitiesForRoles(directRoles)
	caps.Union(e.catalog.CapabilitiesForRoles(teamRoles))

	if e.cache != nil && !hinted {
		e.cache.Set(ctx, subjectUserID, folderID, caps)
	}

	return caps, nil
}
