package authz

import (
	"context"
	"fmt"
	"sort"

	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
	"lodestar/internal/domain/services"
)

// Discoverable reports whether a resource at the given visibility appears in
// public discovery listings. Only public resources are ever listed; shared
// differs from private in UX framing only, not in access semantics.
func Discoverable(v models.Visibility) bool {
	return v == models.VisibilityPublic
}

// VisibilityValidator computes effective visibility for graphs and the
// blocking-document sets that gate public upgrades. It runs synchronously
// inside the mutating transaction: a stale permissive window is a security
// defect, not an eventual-consistency nuisance.
type VisibilityValidator struct {
	graphRepo  repositories.GraphRepository
	docRepo    repositories.DocumentRepository
	folderRepo repositories.FolderRepository
}

// NewVisibilityValidator creates the cross-resource validator.
func NewVisibilityValidator(
	graphRepo repositories.GraphRepository,
	docRepo repositories.DocumentRepository,
	folderRepo repositories.FolderRepository,
) services.GraphVisibilityValidator {
	return &VisibilityValidator{
		graphRepo:  graphRepo,
		docRepo:    docRepo,
		folderRepo: folderRepo,
	}
}

// ValidateGraphVisibility computes the graph's effective visibility: the
// minimum over its container's visibility and every referenced document's
// resolved visibility. Blocking lists the documents stricter than public.
func (v *VisibilityValidator) ValidateGraphVisibility(ctx context.Context, graphID string) (models.Visibility, []string, error) {
	graph, err := v.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return "", nil, err
	}
	return v.validateGraph(ctx, graph)
}

func (v *VisibilityValidator) validateGraph(ctx context.Context, graph *models.Graph) (models.Visibility, []string, error) {
	effective, err := v.containerVisibility(ctx, graph.FolderID)
	if err != nil {
		return "", nil, err
	}

	var blocking []string
	for _, docID := range graph.DocumentIDs {
		docVis, err := v.documentVisibility(ctx, docID)
		if err != nil {
			return "", nil, err
		}
		effective = models.MinVisibility(effective, docVis)
		if docVis != models.VisibilityPublic {
			blocking = append(blocking, docID)
		}
	}

	sort.Strings(blocking)
	return effective, blocking, nil
}

// BlockingDocumentsForFolder aggregates the blocking documents across every
// graph in the folder, deduplicated. A folder may be made public only when
// this set is empty.
func (v *VisibilityValidator) BlockingDocumentsForFolder(ctx context.Context, folderID string) ([]string, error) {
	graphs, err := v.graphRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var blocking []string
	for i := range graphs {
		_, graphBlocking, err := v.validateGraph(ctx, &graphs[i])
		if err != nil {
			return nil, err
		}
		for _, docID := range graphBlocking {
			if _, ok := seen[docID]; ok {
				continue
			}
			seen[docID] = struct{}{}
			blocking = append(blocking, docID)
		}
	}

	sort.Strings(blocking)
	return blocking, nil
}

// containerVisibility resolves the visibility of a folder reference; a nil
// reference means un-filed, which is always private.
func (v *VisibilityValidator) containerVisibility(ctx context.Context, folderID *string) (models.Visibility, error) {
	if folderID == nil {
		return models.VisibilityPrivate, nil
	}

	folder, err := v.folderRepo.GetByID(ctx, *folderID)
	if err != nil {
		return "", fmt.Errorf("resolve container visibility: %w", err)
	}
	return folder.Visibility, nil
}

// documentVisibility resolves a document's visibility through its containing
// folder; un-filed documents are private.
func (v *VisibilityValidator) documentVisibility(ctx context.Context, documentID string) (models.Visibility, error) {
	doc, err := v.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("resolve document visibility: %w", err)
	}
	return v.containerVisibility(ctx, doc.FolderID)
}
