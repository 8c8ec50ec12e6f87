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

const maxDocumentNameLength = 255

type documentService struct {
	docRepo    repositories.DocumentRepository
	folderRepo repositories.FolderRepository
	evaluator  services.AccessEvaluator
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	folderRepo repositories.FolderRepository,
	evaluator services.AccessEvaluator,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		folderRepo: folderRepo,
		evaluator:  evaluator,
		txManager:  txManager,
		logger:     logger,
	}
}

// CreateDocument creates a document. Filing into a folder requires
// folder:write there; the document then carries the folder owner's
// delegated ownership. A nil folder id creates an un-filed document owned
// directly by the creator.
func (s *documentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	owner := models.UserOwner(req.UserID)
	if req.FolderID != nil {
		if err := requireCapability(ctx, s.evaluator, req.UserID, folderRef(*req.FolderID), models.CapFolderWrite); err != nil {
			return nil, err
		}
		folder, err := s.folderRepo.GetByID(ctx, *req.FolderID)
		if err != nil {
			return nil, err
		}
		owner = folder.Owner
	}

	doc := &models.Document{
		ID:       uuid.NewString(),
		Name:     req.Name,
		FolderID: req.FolderID,
		Owner:    owner,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"name", doc.Name,
		"folder_id", req.FolderID,
		"created_by", req.UserID,
	)

	return doc, nil
}

// GetDocument retrieves a document the subject can read. A denied read of a
// filed document is indistinguishable from a missing one.
func (s *documentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, documentRef(doc), models.CapFolderRead); err != nil {
		return nil, err
	}

	return doc, nil
}

// RenameDocument renames a document (requires folder:write, or ownership
// for un-filed documents)
func (s *documentService) RenameDocument(ctx context.Context, userID, documentID, name string) (*models.Document, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, maxDocumentNameLength)); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, documentRef(doc), models.CapFolderWrite); err != nil {
		return nil, err
	}

	if err := s.docRepo.Rename(ctx, documentID, name); err != nil {
		return nil, err
	}
	doc.Name = name

	s.logger.Info("document renamed", "id", documentID, "name", name, "by", userID)

	return doc, nil
}

// MoveDocument files, re-files or un-files a document. The subject needs
// write on the source location and on the destination folder. Graph
// effective visibility is derived at read time, so no recomputation can go
// stale.
func (s *documentService) MoveDocument(ctx context.Context, userID, documentID string, folderID *string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, documentRef(doc), models.CapFolderWrite); err != nil {
		return nil, err
	}

	owner := models.UserOwner(userID)
	if folderID != nil {
		if err := requireCapability(ctx, s.evaluator, userID, folderRef(*folderID), models.CapFolderWrite); err != nil {
			return nil, err
		}
		folder, err := s.folderRepo.GetByID(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		owner = folder.Owner
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.docRepo.Move(txCtx, documentID, folderID, owner)
	})
	if err != nil {
		return nil, err
	}

	doc.FolderID = folderID
	doc.Owner = owner

	s.logger.Info("document moved", "id", documentID, "folder_id", folderID, "by", userID)

	return doc, nil
}

// DeleteDocument deletes a document (requires folder:write, or ownership
// for un-filed documents)
func (s *documentService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, documentRef(doc), models.CapFolderWrite); err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", documentID, "name", doc.Name, "by", userID)

	return nil
}

// ListByFolder lists the documents in a folder the subject can read
func (s *documentService) ListByFolder(ctx context.Context, userID, folderID string) ([]models.Document, error) {
	if err := requireCapability(ctx, s.evaluator, userID, folderRef(folderID), models.CapFolderRead); err != nil {
		return nil, err
	}
	return s.docRepo.ListByFolder(ctx, folderID)
}

func (s *documentService) validateCreateRequest(req *services.CreateDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, maxDocumentNameLength),
		),
	)
}
