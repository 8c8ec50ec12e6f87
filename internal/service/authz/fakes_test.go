package authz

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGrantRepo is an in-memory grant store with the real store's
// idempotent-create semantics.
type fakeGrantRepo struct {
	grants []models.Grant
	nextID int
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{}
}

func (f *fakeGrantRepo) grant(kind models.SubjectKind, subjectID, folderID, role string) {
	for _, g := range f.grants {
		if g.SubjectKind == kind && g.SubjectID == subjectID && g.FolderID == folderID && g.RoleName == role {
			return
		}
	}
	f.nextID++
	f.grants = append(f.grants, models.Grant{
		ID:          fmt.Sprintf("grant-%d", f.nextID),
		SubjectKind: kind,
		SubjectID:   subjectID,
		FolderID:    folderID,
		RoleName:    role,
	})
}

func (f *fakeGrantRepo) Create(ctx context.Context, grant *models.Grant) error {
	f.grant(grant.SubjectKind, grant.SubjectID, grant.FolderID, grant.RoleName)
	return nil
}

func (f *fakeGrantRepo) Delete(ctx context.Context, kind models.SubjectKind, subjectID, folderID, roleName string) error {
	for i, g := range f.grants {
		if g.SubjectKind == kind && g.SubjectID == subjectID && g.FolderID == folderID && g.RoleName == roleName {
			f.grants = append(f.grants[:i], f.grants[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeGrantRepo) RolesForUserOnFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	var out []string
	for _, g := range f.grants {
		if g.SubjectKind == models.SubjectUser && g.SubjectID == userID && g.FolderID == folderID {
			out = append(out, g.RoleName)
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) RolesForTeamsOnFolder(ctx context.Context, teamIDs []string, folderID string) ([]string, error) {
	var out []string
	for _, g := range f.grants {
		if g.SubjectKind != models.SubjectTeam || g.FolderID != folderID {
			continue
		}
		for _, teamID := range teamIDs {
			if g.SubjectID == teamID {
				out = append(out, g.RoleName)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) ListForFolder(ctx context.Context, folderID string) ([]models.Grant, error) {
	var out []models.Grant
	for _, g := range f.grants {
		if g.FolderID == folderID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantRepo) DeleteForFolder(ctx context.Context, folderID string) error {
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.FolderID != folderID {
			kept = append(kept, g)
		}
	}
	f.grants = kept
	return nil
}

// fakeMembershipRepo resolves team membership from a static map.
type fakeMembershipRepo struct {
	teams       map[string][]string // userID -> teamIDs
	resolutions int
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{teams: make(map[string][]string)}
}

func (f *fakeMembershipRepo) TeamsForUser(ctx context.Context, userID string) ([]string, error) {
	f.resolutions++
	return f.teams[userID], nil
}

func (f *fakeMembershipRepo) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	for _, id := range f.teams[userID] {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMembershipRepo) AddMember(ctx context.Context, m *models.TeamMembership) error {
	f.teams[m.UserID] = append(f.teams[m.UserID], m.TeamID)
	return nil
}

func (f *fakeMembershipRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	for i, id := range f.teams[userID] {
		if id == teamID {
			f.teams[userID] = append(f.teams[userID][:i], f.teams[userID][i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeFolderRepo stores folders in memory.
type fakeFolderRepo struct {
	folders map[string]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func (f *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	f.folders[folder.ID] = folder
	return nil
}

func (f *fakeFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return folder, nil
}

func (f *fakeFolderRepo) Rename(ctx context.Context, id, name string) error {
	folder, ok := f.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	folder.Name = name
	return nil
}

func (f *fakeFolderRepo) UpdateVisibility(ctx context.Context, id string, v models.Visibility) error {
	folder, ok := f.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	folder.Visibility = v
	return nil
}

func (f *fakeFolderRepo) UpdateOwner(ctx context.Context, id string, owner models.Owner) error {
	folder, ok := f.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	folder.Owner = owner
	return nil
}

func (f *fakeFolderRepo) Delete(ctx context.Context, id string) error {
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderRepo) ListOwnedBy(ctx context.Context, userID string, teamIDs []string) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range f.folders {
		if folder.Owner.Type == models.OwnerUser && folder.Owner.UserID != nil && *folder.Owner.UserID == userID {
			out = append(out, *folder)
			continue
		}
		if folder.Owner.Type == models.OwnerTeam && folder.Owner.TeamID != nil {
			for _, teamID := range teamIDs {
				if *folder.Owner.TeamID == teamID {
					out = append(out, *folder)
					break
				}
			}
		}
	}
	return out, nil
}

func (f *fakeFolderRepo) ListPublic(ctx context.Context, limit, offset int) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range f.folders {
		if folder.Visibility == models.VisibilityPublic {
			out = append(out, *folder)
		}
	}
	return out, nil
}

// fakeDocRepo stores document metadata in memory.
type fakeDocRepo struct {
	docs map[string]*models.Document
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*models.Document)}
}

func (f *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (f *fakeDocRepo) Rename(ctx context.Context, id, name string) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Name = name
	return nil
}

func (f *fakeDocRepo) Move(ctx context.Context, id string, folderID *string, owner models.Owner) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.FolderID = folderID
	doc.Owner = owner
	return nil
}

func (f *fakeDocRepo) Delete(ctx context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeDocRepo) ListByFolder(ctx context.Context, folderID string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range f.docs {
		if doc.FolderID != nil && *doc.FolderID == folderID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocRepo) DetachFromFolder(ctx context.Context, folderID string, owner models.Owner) error {
	for _, doc := range f.docs {
		if doc.FolderID != nil && *doc.FolderID == folderID {
			doc.FolderID = nil
			doc.Owner = owner
		}
	}
	return nil
}

// fakeGraphRepo stores graphs in memory.
type fakeGraphRepo struct {
	graphs map[string]*models.Graph
}

func newFakeGraphRepo() *fakeGraphRepo {
	return &fakeGraphRepo{graphs: make(map[string]*models.Graph)}
}

func (f *fakeGraphRepo) Create(ctx context.Context, graph *models.Graph) error {
	f.graphs[graph.ID] = graph
	return nil
}

func (f *fakeGraphRepo) GetByID(ctx context.Context, id string) (*models.Graph, error) {
	graph, ok := f.graphs[id]
	if !ok {
		return nil, fmt.Errorf("graph %s: %w", id, domain.ErrNotFound)
	}
	return graph, nil
}

func (f *fakeGraphRepo) Rename(ctx context.Context, id, name string) error {
	graph, ok := f.graphs[id]
	if !ok {
		return domain.ErrNotFound
	}
	graph.Name = name
	return nil
}

func (f *fakeGraphRepo) Move(ctx context.Context, id string, folderID *string, owner models.Owner) error {
	graph, ok := f.graphs[id]
	if !ok {
		return domain.ErrNotFound
	}
	graph.FolderID = folderID
	graph.Owner = owner
	return nil
}

func (f *fakeGraphRepo) Delete(ctx context.Context, id string) error {
	delete(f.graphs, id)
	return nil
}

func (f *fakeGraphRepo) ListByFolder(ctx context.Context, folderID string) ([]models.Graph, error) {
	var out []models.Graph
	for _, graph := range f.graphs {
		if graph.FolderID != nil && *graph.FolderID == folderID {
			out = append(out, *graph)
		}
	}
	return out, nil
}

func (f *fakeGraphRepo) SetDocuments(ctx context.Context, graphID string, documentIDs []string) error {
	graph, ok := f.graphs[graphID]
	if !ok {
		return domain.ErrNotFound
	}
	graph.DocumentIDs = documentIDs
	return nil
}

func (f *fakeGraphRepo) ListReferencingDocument(ctx context.Context, documentID string) ([]models.Graph, error) {
	var out []models.Graph
	for _, graph := range f.graphs {
		for _, id := range graph.DocumentIDs {
			if id == documentID {
				out = append(out, *graph)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGraphRepo) DetachFromFolder(ctx context.Context, folderID string, owner models.Owner) error {
	for _, graph := range f.graphs {
		if graph.FolderID != nil && *graph.FolderID == folderID {
			graph.FolderID = nil
			graph.Owner = owner
		}
	}
	return nil
}
