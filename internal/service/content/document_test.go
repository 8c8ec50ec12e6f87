package content

import (
	"context"
	"errors"
	"testing"

	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
)

func TestCreateDocumentInFolderDelegatesOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	folder := f.mustCreateFolder(t, "alice", "notes", "")
	if err := f.grantSvc.GrantRole(ctx, "alice", &services.GrantRequest{
		FolderID: folder.ID, SubjectKind: models.SubjectUser, SubjectID: "bob", RoleName: models.RoleEditor,
	}); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}

	doc, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
		UserID:   "bob",
		Name:     "draft",
		FolderID: &folder.ID,
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	// A filed document carries the folder owner's ownership, not the
	// creating editor's.
	if doc.Owner.Type != models.OwnerUser || doc.Owner.UserID == nil || *doc.Owner.UserID != "alice" {
		t.Errorf("owner = %+v, want user alice", doc.Owner)
	}
}

func TestCreateDocumentRequiresWriteOnFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	folder := f.mustCreateFolder(t, "alice", "notes", "")

	_, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
		UserID:   "bob",
		Name:     "draft",
		FolderID: &folder.ID,
	})
	if !errors.Is(err, domain.ErrResourceHidden) {
		t.Errorf("got %v, want ErrResourceHidden", err)
	}
}

// Un-filed documents are visible to the owner alone; grants on other folders
// never reach them.
func TestUnfiledDocumentIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	doc, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
		UserID: "alice",
		Name:   "scratch",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := f.docSvc.GetDocument(ctx, "alice", doc.ID); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := f.docSvc.GetDocument(ctx, "bob", doc.ID); !errors.Is(err, domain.ErrResourceHidden) {
		t.Errorf("stranger read: got %v, want ErrResourceHidden", err)
	}
	if _, err := f.docSvc.RenameDocument(ctx, "alice", doc.ID, "scratch2"); err != nil {
		t.Errorf("owner rename: %v", err)
	}
}

// A public folder is world-readable but not world-writable.
func TestPublicFolderDocumentsAreReadOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	folder := f.mustCreateFolder(t, "alice", "wiki", models.VisibilityPublic)
	doc, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
		UserID:   "alice",
		Name:     "readme",
		FolderID: &folder.ID,
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if _, err := f.docSvc.GetDocument(ctx, "bob", doc.ID); err != nil {
		t.Errorf("anonymous-style read: %v", err)
	}

	// Bob can see the document exists, so the write denial is a plain
	// forbidden rather than a hidden-resource error.
	if _, err := f.docSvc.RenameDocument(ctx, "bob", doc.ID, "defaced"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("public rename: got %v, want ErrForbidden", err)
	}
	if err := f.docSvc.DeleteDocument(ctx, "bob", doc.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("public delete: got %v, want ErrForbidden", err)
	}
}

func TestMoveDocumentRequiresWriteOnBothEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	src := f.mustCreateFolder(t, "alice", "src", "")
	dst := f.mustCreateFolder(t, "carol", "dst", "")

	doc, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
		UserID:   "alice",
		Name:     "draft",
		FolderID: &src.ID,
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	// Alice cannot see carol's folder at all.
	if _, err := f.docSvc.MoveDocument(ctx, "alice", doc.ID, &dst.ID); !errors.Is(err, domain.ErrResourceHidden) {
		t.Fatalf("move without dest access: got %v, want ErrResourceHidden", err)
	}

	if err := f.grantSvc.GrantRole(ctx, "carol", &services.GrantRequest{
		FolderID: dst.ID, SubjectKind: models.SubjectUser, SubjectID: "alice", RoleName: models.RoleEditor,
	}); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}

	moved, err := f.docSvc.MoveDocument(ctx, "alice", doc.ID, &dst.ID)
	if err != nil {
		t.Fatalf("MoveDocument: %v", err)
	}
	if moved.FolderID == nil || *moved.FolderID != dst.ID {
		t.Errorf("folder_id = %v, want %s", moved.FolderID, dst.ID)
	}
	if moved.Owner.UserID == nil || *moved.Owner.UserID != "carol" {
		t.Errorf("owner = %+v, want carol (destination folder owner)", moved.Owner)
	}
}

func TestUnfileDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	folder := f.mustCreateFolder(t, "alice", "notes", "")
	doc, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
		UserID:   "alice",
		Name:     "draft",
		FolderID: &folder.ID,
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	unfiled, err := f.docSvc.MoveDocument(ctx, "alice", doc.ID, nil)
	if err != nil {
		t.Fatalf("MoveDocument(nil): %v", err)
	}
	if unfiled.FolderID != nil {
		t.Errorf("folder_id = %v, want nil", unfiled.FolderID)
	}
	// Un-filing reverts to direct ownership by the mover.
	if unfiled.Owner.UserID == nil || *unfiled.Owner.UserID != "alice" {
		t.Errorf("owner = %+v, want alice", unfiled.Owner)
	}
}

func TestCreateDocumentValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{UserID: "alice"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty name: got %v, want ErrValidation", err)
	}
}

func TestListDocumentsByFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	folder := f.mustCreateFolder(t, "alice", "notes", "")
	for _, name := range []string{"a", "b"} {
		if _, err := f.docSvc.CreateDocument(ctx, &services.CreateDocumentRequest{
			UserID: "alice", Name: name, FolderID: &folder.ID,
		}); err != nil {
			t.Fatalf("CreateDocument(%s): %v", name, err)
		}
	}

	docs, err := f.docSvc.ListByFolder(ctx, "alice", folder.ID)
	if err != nil {
		t.Fatalf("ListByFolder: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("len = %d, want 2", len(docs))
	}

	if _, err := f.docSvc.ListByFolder(ctx, "bob", folder.ID); !errors.Is(err, domain.ErrResourceHidden) {
		t.Errorf("stranger list: got %v, want ErrResourceHidden", err)
	}
}
