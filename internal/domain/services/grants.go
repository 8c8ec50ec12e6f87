package services

import (
	"context"

	"lodestar/internal/domain/models"
)

// GrantService manages role grants on folders. Every mutation is guarded by
// an internal Decide call requiring folder:admin for the grantor.
type GrantService interface {
	// GrantRole grants a role to a user or team on a folder. Granting an
	// already-held role is a no-op success.
	GrantRole(ctx context.Context, grantorUserID string, req *GrantRequest) error

	// RevokeRole removes a previously granted role.
	RevokeRole(ctx context.Context, grantorUserID string, req *GrantRequest) error

	// ListGrants returns every grant on the folder (requires folder:admin).
	ListGrants(ctx context.Context, userID, folderID string) ([]models.Grant, error)

	// EffectiveCapabilities exposes the evaluator's aggregate set for UI
	// permission badges.
	EffectiveCapabilities(ctx context.Context, userID, folderID string) (models.CapabilitySet, error)
}

// GrantRequest identifies a (subject, folder, role) association.
type GrantRequest struct {
	FolderID    string             `json:"-"`
	SubjectKind models.SubjectKind `json:"subject_kind"`
	SubjectID   string             `json:"subject_id"`
	RoleName    string             `json:"role_name"`
}
