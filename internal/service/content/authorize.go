package content

import (
	"context"
	"fmt"

	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
)

// requireCapability enforces a capability on a resource for read/write
// paths. A denial is reported as the ambiguous "not found or access denied"
// unless the subject can at least read the resource, in which case the
// denial is a plain forbidden: existence is already known to them.
func requireCapability(ctx context.Context, evaluator services.AccessEvaluator, userID string, ref models.ResourceRef, required models.Capability) error {
	decision, err := evaluator.Decide(ctx, userID, ref, required)
	if err != nil {
		return fmt.Errorf("%s %s: %w", ref.Type, ref.ID, domain.ErrResourceHidden)
	}
	if decision.Allowed {
		return nil
	}

	if required != models.CapFolderRead {
		readable, err := evaluator.Decide(ctx, userID, ref, models.CapFolderRead)
		if err == nil && readable.Allowed {
			return fmt.Errorf("missing %s on %s %s: %w", required, ref.Type, ref.ID, domain.ErrForbidden)
		}
	}

	return fmt.Errorf("%s %s: %w", ref.Type, ref.ID, domain.ErrResourceHidden)
}

// requireFolderAdmin enforces folder:admin for management operations (grant,
// revoke, visibility, transfer, delete). These respond with a clear
// forbidden rather than the ambiguous not-found: the caller is managing a
// folder it already knows about.
func requireFolderAdmin(ctx context.Context, evaluator services.AccessEvaluator, userID, folderID string) error {
	ref := models.ResourceRef{Type: models.ResourceFolder, ID: folderID}
	decision, err := evaluator.Decide(ctx, userID, ref, models.CapFolderAdmin)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("folder %s requires %s: %w", folderID, models.CapFolderAdmin, domain.ErrForbidden)
	}
	return nil
}

// folderRef builds the resource reference for a folder.
func folderRef(folderID string) models.ResourceRef {
	return models.ResourceRef{Type: models.ResourceFolder, ID: folderID}
}

// documentRef builds the resource reference for a document as read from the
// content store.
func documentRef(doc *models.Document) models.ResourceRef {
	return models.ResourceRef{
		Type:     models.ResourceDocument,
		ID:       doc.ID,
		FolderID: doc.FolderID,
		Owner:    doc.Owner,
	}
}

// graphRef builds the resource reference for a graph.
func graphRef(graph *models.Graph) models.ResourceRef {
	return models.ResourceRef{
		Type:     models.ResourceGraph,
		ID:       graph.ID,
		FolderID: graph.FolderID,
		Owner:    graph.Owner,
	}
}
