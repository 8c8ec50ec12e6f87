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

const maxGraphNameLength = 255

type graphService struct {
	graphRepo  repositories.GraphRepository
	docRepo    repositories.DocumentRepository
	folderRepo repositories.FolderRepository
	evaluator  services.AccessEvaluator
	validator  services.GraphVisibilityValidator
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewGraphService creates a new graph service
func NewGraphService(
	graphRepo repositories.GraphRepository,
	docRepo repositories.DocumentRepository,
	folderRepo repositories.FolderRepository,
	evaluator services.AccessEvaluator,
	validator services.GraphVisibilityValidator,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.GraphService {
	return &graphService{
		graphRepo:  graphRepo,
		docRepo:    docRepo,
		folderRepo: folderRepo,
		evaluator:  evaluator,
		validator:  validator,
		txManager:  txManager,
		logger:     logger,
	}
}

// CreateGraph creates a graph. Every referenced document must be readable by
// the creator: referencing a document you cannot see would leak its
// existence through the graph's effective visibility.
func (s *graphService) CreateGraph(ctx context.Context, req *services.CreateGraphRequest) (*models.Graph, error) {
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

	if err := s.requireReadableDocuments(ctx, req.UserID, req.DocumentIDs); err != nil {
		return nil, err
	}

	graph := &models.Graph{
		ID:          uuid.NewString(),
		Name:        req.Name,
		FolderID:    req.FolderID,
		Owner:       owner,
		DocumentIDs: req.DocumentIDs,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.graphRepo.Create(txCtx, graph)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("graph created",
		"id", graph.ID,
		"name", graph.Name,
		"folder_id", req.FolderID,
		"documents", len(req.DocumentIDs),
		"created_by", req.UserID,
	)

	return graph, nil
}

// GetGraph retrieves a graph the subject can read
func (s *graphService) GetGraph(ctx context.Context, userID, graphID string) (*models.Graph, error) {
	graph, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", graphID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, graphRef(graph), models.CapFolderRead); err != nil {
		return nil, err
	}

	return graph, nil
}

// RenameGraph renames a graph
func (s *graphService) RenameGraph(ctx context.Context, userID, graphID, name string) (*models.Graph, error) {
	if err := validation.Validate(name, validation.Required, validation.Length(1, maxGraphNameLength)); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	graph, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", graphID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, graphRef(graph), models.CapFolderWrite); err != nil {
		return nil, err
	}

	if err := s.graphRepo.Rename(ctx, graphID, name); err != nil {
		return nil, err
	}
	graph.Name = name

	s.logger.Info("graph renamed", "id", graphID, "name", name, "by", userID)

	return graph, nil
}

// MoveGraph files, re-files or un-files a graph
func (s *graphService) MoveGraph(ctx context.Context, userID, graphID string, folderID *string) (*models.Graph, error) {
	graph, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", graphID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, graphRef(graph), models.CapFolderWrite); err != nil {
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
		return s.graphRepo.Move(txCtx, graphID, folderID, owner)
	})
	if err != nil {
		return nil, err
	}

	graph.FolderID = folderID
	graph.Owner = owner

	s.logger.Info("graph moved", "id", graphID, "folder_id", folderID, "by", userID)

	return graph, nil
}

// SetDocuments replaces the graph's referenced document set. The new set
// must be readable by the subject; the change and its validation commit
// together.
func (s *graphService) SetDocuments(ctx context.Context, userID, graphID string, documentIDs []string) (*models.Graph, error) {
	graph, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", graphID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, graphRef(graph), models.CapFolderWrite); err != nil {
		return nil, err
	}

	if err := s.requireReadableDocuments(ctx, userID, documentIDs); err != nil {
		return nil, err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.graphRepo.SetDocuments(txCtx, graphID, documentIDs)
	})
	if err != nil {
		return nil, err
	}

	graph.DocumentIDs = documentIDs

	s.logger.Info("graph documents updated", "id", graphID, "documents", len(documentIDs), "by", userID)

	return graph, nil
}

// EffectiveVisibility returns the graph's derived visibility and the
// documents that would block a public upgrade
func (s *graphService) EffectiveVisibility(ctx context.Context, userID, graphID string) (models.Visibility, []string, error) {
	graph, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return "", nil, fmt.Errorf("graph %s: %w", graphID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, graphRef(graph), models.CapFolderRead); err != nil {
		return "", nil, err
	}

	return s.validator.ValidateGraphVisibility(ctx, graphID)
}

// DeleteGraph deletes a graph
func (s *graphService) DeleteGraph(ctx context.Context, userID, graphID string) error {
	graph, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return fmt.Errorf("graph %s: %w", graphID, domain.ErrResourceHidden)
	}

	if err := requireCapability(ctx, s.evaluator, userID, graphRef(graph), models.CapFolderWrite); err != nil {
		return err
	}

	if err := s.graphRepo.Delete(ctx, graphID); err != nil {
		return err
	}

	s.logger.Info("graph deleted", "id", graphID, "name", graph.Name, "by", userID)

	return nil
}

// ListByFolder lists the graphs in a folder the subject can read
func (s *graphService) ListByFolder(ctx context.Context, userID, folderID string) ([]models.Graph, error) {
	if err := requireCapability(ctx, s.evaluator, userID, folderRef(folderID), models.CapFolderRead); err != nil {
		return nil, err
	}
	return s.graphRepo.ListByFolder(ctx, folderID)
}

// requireReadableDocuments checks read access on every referenced document.
func (s *graphService) requireReadableDocuments(ctx context.Context, userID string, documentIDs []string) error {
	for _, docID := range documentIDs {
		doc, err := s.docRepo.GetByID(ctx, docID)
		if err != nil {
			return fmt.Errorf("document %s: %w", docID, domain.ErrResourceHidden)
		}
		if err := requireCapability(ctx, s.evaluator, userID, documentRef(doc), models.CapFolderRead); err != nil {
			return err
		}
	}
	return nil
}

func (s *graphService) validateCreateRequest(req *services.CreateGraphRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, maxGraphNameLength),
		),
	)
}
