package content

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
	"lodestar/internal/domain/services"
)

const maxFolderNameLength = 255

type folderService struct {
	folderRepo     repositories.FolderRepository
	docRepo        repositories.DocumentRepository
	graphRepo      repositories.GraphRepository
	grantRepo      repositories.GrantRepository
	membershipRepo repositories.MembershipRepository
	evaluator      services.AccessEvaluator
	validator      services.GraphVisibilityValidator
	txManager      repositories.TransactionManager
	cache          services.CapabilityCache // may be nil
	logger         *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repositories.FolderRepository,
	docRepo repositories.DocumentRepository,
	graphRepo repositories.GraphRepository,
	grantRepo repositories.GrantRepository,
	membershipRepo repositories.MembershipRepository,
	evaluator services.AccessEvaluator,
	validator services.GraphVisibilityValidator,
	txManager repositories.TransactionManager,
	cache services.CapabilityCache,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		folderRepo:     folderRepo,
		docRepo:        docRepo,
		graphRepo:      graphRepo,
		grantRepo:      grantRepo,
		membershipRepo: membershipRepo,
		evaluator:      evaluator,
		validator:      validator,
		txManager:      txManager,
		cache:          cache,
		logger:         logger,
	}
}

// CreateFolder creates a folder and seeds the creator's Admin grant in the
// same transaction. Recorded ownership of a filed folder grants nothing by
// itself, so the creation flow is where the creator's access comes from.
func (s *folderService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", domain.ErrValidation, visibility)
	}

	owner := models.UserOwner(req.UserID)
	if req.TeamID != nil {
		member, err := s.membershipRepo.IsMember(ctx, *req.TeamID, req.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("not a member of team %s: %w", *req.TeamID, domain.ErrForbidden)
		}
		owner = models.TeamOwner(*req.TeamID)
	}

	folder := &models.Folder{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Owner:      owner,
		Visibility: visibility,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.folderRepo.Create(txCtx, folder); err != nil {
			return err
		}
		return s.grantRepo.Create(txCtx, &models.Grant{
			SubjectKind: models.SubjectUser,
			SubjectID:   req.UserID,
			FolderID:    folder.ID,
			RoleName:    models.RoleAdmin,
			GrantedBy:   req.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_type", folder.Owner.Type,
		"visibility", folder.Visibility,
		"created_by", req.UserID,
	)

	return folder, nil
}

// GetFolder retrieves a folder the subject can read
func (s *folderService) GetFolder(ctx context.Context, userID, folderID string) (*models.Folder, error) {
	if err := requireCapability(ctx, s.evaluator, userID, folderRef(folderID), models.CapFolderRead); err != nil {
		return nil, err
	}
	return s.folderRepo.GetByID(ctx, folderID)
}

// RenameFolder renames a folder (requires folder:write)
func (s *folderService) RenameFolder(ctx context.Context, userID, folderID, name string) (*models.Folder, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, maxFolderNameLength)); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	if err := requireCapability(ctx, s.evaluator, userID, folderRef(folderID), models.CapFolderWrite); err != nil {
		return nil, err
	}

	if err := s.folderRepo.Rename(ctx, folderID, name); err != nil {
		return nil, err
	}

	s.logger.Info("folder renamed", "id", folderID, "name", name, "by", userID)

	return s.folderRepo.GetByID(ctx, folderID)
}

// SetVisibility changes a folder's visibility. Upgrades to public are
// validated against every graph in the folder inside the same transaction
// as the write: validate-then-commit, never commit-then-validate.
func (s *folderService) SetVisibility(ctx context.Context, userID, folderID string, v models.Visibility) (*models.Folder, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", domain.ErrValidation, v)
	}

	// The admin decision shares the transaction with the write, so a
	// concurrent revocation cannot slip between check and commit.
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := requireFolderAdmin(txCtx, s.evaluator, userID, folderID); err != nil {
			return err
		}
		if v == models.VisibilityPublic {
			blocking, err := s.validator.BlockingDocumentsForFolder(txCtx, folderID)
			if err != nil {
				return err
			}
			if len(blocking) > 0 {
				return &domain.VisibilityEscalationBlockedError{Blocking: blocking}
			}
		}
		return s.folderRepo.UpdateVisibility(txCtx, folderID, v)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder visibility changed", "id", folderID, "visibility", v, "by", userID)

	return s.folderRepo.GetByID(ctx, folderID)
}

// TransferOwnership re-records the folder's owner. Grants are deliberately
// untouched: transferring ownership must not silently revoke or escalate
// anyone's effective access.
func (s *folderService) TransferOwnership(ctx context.Context, userID, folderID string, newOwner models.Owner) (*models.Folder, error) {
	if err := newOwner.Validate(); err != nil {
		return nil, err
	}

	if err := requireFolderAdmin(ctx, s.evaluator, userID, folderID); err != nil {
		return nil, err
	}

	if err := s.folderRepo.UpdateOwner(ctx, folderID, newOwner); err != nil {
		return nil, err
	}

	s.logger.Info("folder ownership transferred",
		"id", folderID,
		"owner_type", newOwner.Type,
		"owner_id", newOwner.ID(),
		"by", userID,
	)

	return s.folderRepo.GetByID(ctx, folderID)
}

// DeleteFolder deletes a folder, detaching contained documents and graphs to
// the folder owner's direct ownership. Detached items become un-filed:
// private, owner-only.
func (s *folderService) DeleteFolder(ctx context.Context, userID, folderID string) error {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := requireFolderAdmin(txCtx, s.evaluator, userID, folderID); err != nil {
			return err
		}
		if err := s.docRepo.DetachFromFolder(txCtx, folderID, folder.Owner); err != nil {
			return err
		}
		if err := s.graphRepo.DetachFromFolder(txCtx, folderID, folder.Owner); err != nil {
			return err
		}
		if err := s.grantRepo.DeleteForFolder(txCtx, folderID); err != nil {
			return err
		}
		return s.folderRepo.Delete(txCtx, folderID)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateFolder(ctx, folderID)
	}

	s.logger.Info("folder deleted", "id", folderID, "name", folder.Name, "by", userID)

	return nil
}

// ListFolders lists folders owned by the subject or their teams
func (s *folderService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	teamIDs, err := s.membershipRepo.TeamsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.folderRepo.ListOwnedBy(ctx, userID, teamIDs)
}

// Discover lists public folders
func (s *folderService) Discover(ctx context.Context, limit, offset int) ([]models.Folder, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.folderRepo.ListPublic(ctx, limit, offset)
}

func (s *folderService) validateCreateRequest(req *services.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, maxFolderNameLength),
		),
	)
}
