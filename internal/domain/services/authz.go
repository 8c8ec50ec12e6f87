package services

import (
	"context"

	"lodestar/internal/domain/models"
)

// DecisionReason explains why an access decision was reached. Emitted with
// every decision for the audit collaborator.
type DecisionReason string

const (
	ReasonOwner          DecisionReason = "owner"            // un-filed item, subject owns it
	ReasonGrant          DecisionReason = "grant"            // capability present in effective set
	ReasonPublicRead     DecisionReason = "public_read"      // public folder discovery read
	ReasonNoGrant        DecisionReason = "no_grant"         // capability absent from effective set
	ReasonUnfiledDenied  DecisionReason = "unfiled_denied"   // un-filed item, subject is not the owner
	ReasonUnknownSubject DecisionReason = "unknown_resource" // referenced folder does not exist
)

// Decision is the outcome of an access evaluation.
type Decision struct {
	Allowed bool
	Reason  DecisionReason
}

// AccessEvaluator is the core decision function of the platform. It is
// stateless and safe for concurrent use.
type AccessEvaluator interface {
	// Decide reports whether the subject holds the required capability on
	// the resource. TeamIDs is an optional caller-supplied membership hint;
	// when nil the membership resolver is consulted.
	Decide(ctx context.Context, subjectUserID string, resource models.ResourceRef, required models.Capability) (Decision, error)

	// EffectiveCapabilities returns the subject's aggregate capability set on
	// a folder (direct grants unioned with team-inherited grants).
	EffectiveCapabilities(ctx context.Context, subjectUserID, folderID string) (models.CapabilitySet, error)

	// DecideWithTeams is Decide with a trusted team-membership hint, used by
	// callers that already resolved (and cached) the subject's teams.
	DecideWithTeams(ctx context.Context, subjectUserID string, teamIDs []string, resource models.ResourceRef, required models.Capability) (Decision, error)
}

// GraphVisibilityValidator computes a graph's effective visibility and the
// set of documents blocking a public upgrade. Invoked synchronously before
// any visibility-raising write commits.
type GraphVisibilityValidator interface {
	ValidateGraphVisibility(ctx context.Context, graphID string) (models.Visibility, []string, error)

	// BlockingDocumentsForFolder aggregates blocking documents across every
	// graph in the folder, for folder-level public upgrades.
	BlockingDocumentsForFolder(ctx context.Context, folderID string) ([]string, error)
}

// CapabilityCache caches effective capability sets per (subject, folder)
// pair. Implementations must support explicit invalidation; a nil cache
// disables caching entirely.
type CapabilityCache interface {
	Get(ctx context.Context, userID, folderID string) (models.CapabilitySet, bool)
	Set(ctx context.Context, userID, folderID string, caps models.CapabilitySet)
	InvalidateFolder(ctx context.Context, folderID string)
	InvalidateUser(ctx context.Context, userID string)
}
