package content

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
	"lodestar/internal/domain/services"
	"lodestar/internal/service/authz"
)

type grantService struct {
	grantRepo repositories.GrantRepository
	evaluator services.AccessEvaluator
	catalog   *authz.Catalog
	txManager repositories.TransactionManager
	cache     services.CapabilityCache // may be nil
	logger    *slog.Logger
}

// NewGrantService creates a new grant service
func NewGrantService(
	grantRepo repositories.GrantRepository,
	evaluator services.AccessEvaluator,
	catalog *authz.Catalog,
	txManager repositories.TransactionManager,
	cache services.CapabilityCache,
	logger *slog.Logger,
) services.GrantService {
	return &grantService{
		grantRepo: grantRepo,
		evaluator: evaluator,
		catalog:   catalog,
		txManager: txManager,
		cache:     cache,
		logger:    logger,
	}
}

// GrantRole grants a role to a user or team on a folder. Requires
// folder:admin for the grantor; granting an already-held role is a no-op
// success.
func (s *grantService) GrantRole(ctx context.Context, grantorUserID string, req *services.GrantRequest) error {
	if err := s.validateRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Grantor check and insert share one transaction: the admin decision
	// must not race a concurrent revocation of the grantor's own role.
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := requireFolderAdmin(txCtx, s.evaluator, grantorUserID, req.FolderID); err != nil {
			return err
		}
		return s.grantRepo.Create(txCtx, &models.Grant{
			SubjectKind: req.SubjectKind,
			SubjectID:   req.SubjectID,
			FolderID:    req.FolderID,
			RoleName:    req.RoleName,
			GrantedBy:   grantorUserID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, req)

	s.logger.Info("role granted",
		"folder_id", req.FolderID,
		"subject_kind", req.SubjectKind,
		"subject_id", req.SubjectID,
		"role", req.RoleName,
		"granted_by", grantorUserID,
	)

	return nil
}

// RevokeRole removes a previously granted role. Same guard as GrantRole.
func (s *grantService) RevokeRole(ctx context.Context, grantorUserID string, req *services.GrantRequest) error {
	if err := s.validateRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := requireFolderAdmin(txCtx, s.evaluator, grantorUserID, req.FolderID); err != nil {
			return err
		}
		return s.grantRepo.Delete(txCtx, req.SubjectKind, req.SubjectID, req.FolderID, req.RoleName)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, req)

	s.logger.Info("role revoked",
		"folder_id", req.FolderID,
		"subject_kind", req.SubjectKind,
		"subject_id", req.SubjectID,
		"role", req.RoleName,
		"revoked_by", grantorUserID,
	)

	return nil
}

// invalidate drops cached capability sets affected by a grant change. A user
// grant touches one (subject, folder) pair; a team grant can affect every
// member, so the whole folder is dropped.
func (s *grantService) invalidate(ctx context.Context, req *services.GrantRequest) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateFolder(ctx, req.FolderID)
}

// ListGrants returns every grant on the folder (requires folder:admin)
func (s *grantService) ListGrants(ctx context.Context, userID, folderID string) ([]models.Grant, error) {
	if err := requireFolderAdmin(ctx, s.evaluator, userID, folderID); err != nil {
		return nil, err
	}
	return s.grantRepo.ListForFolder(ctx, folderID)
}

// EffectiveCapabilities exposes the evaluator's aggregate set so listing UIs
// can render permission badges without issuing one Decide call per action.
func (s *grantService) EffectiveCapabilities(ctx context.Context, userID, folderID string) (models.CapabilitySet, error) {
	return s.evaluator.EffectiveCapabilities(ctx, userID, folderID)
}

func (s *grantService) validateRequest(req *services.GrantRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SubjectID, validation.Required),
		validation.Field(&req.RoleName, validation.Required),
	); err != nil {
		return err
	}

	if req.SubjectKind != models.SubjectUser && req.SubjectKind != models.SubjectTeam {
		return fmt.Errorf("subject_kind must be user or team")
	}

	if _, ok := s.catalog.RoleCapabilities(req.RoleName); !ok {
		return fmt.Errorf("unknown role %q", req.RoleName)
	}

	return nil
}
