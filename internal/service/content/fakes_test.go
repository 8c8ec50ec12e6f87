package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/repositories"
	"lodestar/internal/domain/services"
	"lodestar/internal/service/authz"
)

// fakeTxManager runs the function directly; the fakes have no transactions.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeFolderRepo struct {
	folders map[string]*models.Folder
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

type fakeDocRepo struct {
	docs map[string]*models.Document
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

type fakeGraphRepo struct {
	graphs map[string]*models.Graph
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

type fakeGrantRepo struct {
	grants []models.Grant
	nextID int
}

func (f *fakeGrantRepo) Create(ctx context.Context, grant *models.Grant) error {
	for _, g := range f.grants {
		if g.SubjectKind == grant.SubjectKind && g.SubjectID == grant.SubjectID &&
			g.FolderID == grant.FolderID && g.RoleName == grant.RoleName {
			return nil
		}
	}
	f.nextID++
	grant.ID = fmt.Sprintf("grant-%d", f.nextID)
	f.grants = append(f.grants, *grant)
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

type fakeMembershipRepo struct {
	memberships map[string][]string // userID -> teamIDs
}

func (f *fakeMembershipRepo) TeamsForUser(ctx context.Context, userID string) ([]string, error) {
	return f.memberships[userID], nil
}

func (f *fakeMembershipRepo) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	for _, id := range f.memberships[userID] {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMembershipRepo) AddMember(ctx context.Context, m *models.TeamMembership) error {
	f.memberships[m.UserID] = append(f.memberships[m.UserID], m.TeamID)
	return nil
}

func (f *fakeMembershipRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	for i, id := range f.memberships[userID] {
		if id == teamID {
			f.memberships[userID] = append(f.memberships[userID][:i], f.memberships[userID][i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeTeamRepo struct {
	teams map[string]*models.Team

	// memberships mirrors the schema's ON DELETE CASCADE from teams to
	// team_members.
	memberships *fakeMembershipRepo
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	f.teams[team.ID] = team
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id string) (*models.Team, error) {
	team, ok := f.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return team, nil
}

func (f *fakeTeamRepo) Delete(ctx context.Context, id string) error {
	delete(f.teams, id)
	for userID, teamIDs := range f.memberships.memberships {
		kept := teamIDs[:0]
		for _, teamID := range teamIDs {
			if teamID != id {
				kept = append(kept, teamID)
			}
		}
		f.memberships.memberships[userID] = kept
	}
	return nil
}

// fixture wires the real evaluator, validator and services over in-memory
// repositories, exercising the full authorization path of every operation.
type fixture struct {
	folders    *fakeFolderRepo
	docs       *fakeDocRepo
	graphs     *fakeGraphRepo
	grants     *fakeGrantRepo
	membership *fakeMembershipRepo
	teamRepo   *fakeTeamRepo

	folderSvc services.FolderService
	grantSvc  services.GrantService
	docSvc    services.DocumentService
	graphSvc  services.GraphService
	teamSvc   services.TeamService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := authz.NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	f := &fixture{
		folders:    &fakeFolderRepo{folders: make(map[string]*models.Folder)},
		docs:       &fakeDocRepo{docs: make(map[string]*models.Document)},
		graphs:     &fakeGraphRepo{graphs: make(map[string]*models.Graph)},
		grants:     &fakeGrantRepo{},
		membership: &fakeMembershipRepo{memberships: make(map[string][]string)},
	}
	f.teamRepo = &fakeTeamRepo{teams: make(map[string]*models.Team), memberships: f.membership}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tx := fakeTxManager{}

	evaluator := authz.NewEvaluator(f.grants, f.membership, f.folders, catalog, nil, logger)
	validator := authz.NewVisibilityValidator(f.graphs, f.docs, f.folders)

	f.folderSvc = NewFolderService(f.folders, f.docs, f.graphs, f.grants, f.membership, evaluator, validator, tx, nil, logger)
	f.grantSvc = NewGrantService(f.grants, evaluator, catalog, tx, nil, logger)
	f.docSvc = NewDocumentService(f.docs, f.folders, evaluator, tx, logger)
	f.graphSvc = NewGraphService(f.graphs, f.docs, f.folders, evaluator, validator, tx, logger)
	f.teamSvc = NewTeamService(f.teamRepo, f.membership, tx, nil, logger)

	return f
}

// mustCreateFolder creates a folder as userID and fails the test on error.
func (f *fixture) mustCreateFolder(t *testing.T, userID, name string, v models.Visibility) *models.Folder {
	t.Helper()
	folder, err := f.folderSvc.CreateFolder(context.Background(), &services.CreateFolderRequest{
		UserID:     userID,
		Name:       name,
		Visibility: v,
	})
	if err != nil {
		t.Fatalf("CreateFolder(%s): %v", name, err)
	}
	return folder
}

func strPtr(s string) *string { return &s }
