package content

import (
	"context"
	"errors"
	"testing"

	"lodestar/internal/domain"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
)

func TestCreateTeamSeedsOwnerMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	team, err := f.teamSvc.CreateTeam(ctx, "alice", "research")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if team.OwnerUserID != "alice" {
		t.Errorf("owner = %s, want alice", team.OwnerUserID)
	}

	member, err := f.membership.IsMember(ctx, team.ID, "alice")
	if err != nil {
		t.Fatalf("IsMember: %v", err)
	}
	if !member {
		t.Error("creator is not a member of the new team")
	}
}

func TestTeamVisibleToMembersOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	team, err := f.teamSvc.CreateTeam(ctx, "alice", "research")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	if _, err := f.teamSvc.GetTeam(ctx, "alice", team.ID); err != nil {
		t.Errorf("member read: %v", err)
	}
	if _, err := f.teamSvc.GetTeam(ctx, "bob", team.ID); !errors.Is(err, domain.ErrResourceHidden) {
		t.Errorf("stranger read: got %v, want ErrResourceHidden", err)
	}

	if err := f.teamSvc.AddMember(ctx, "alice", team.ID, "bob"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := f.teamSvc.GetTeam(ctx, "bob", team.ID); err != nil {
		t.Errorf("new member read: %v", err)
	}
}

func TestMembershipOpsRequireOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	team, err := f.teamSvc.CreateTeam(ctx, "alice", "research")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := f.teamSvc.AddMember(ctx, "alice", team.ID, "bob"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	// A plain member cannot change membership.
	if err := f.teamSvc.AddMember(ctx, "bob", team.ID, "carol"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("member AddMember: got %v, want ErrForbidden", err)
	}
	if err := f.teamSvc.RemoveMember(ctx, "bob", team.ID, "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("member RemoveMember: got %v, want ErrForbidden", err)
	}

	// The owner cannot be removed even by themselves.
	if err := f.teamSvc.RemoveMember(ctx, "alice", team.ID, "alice"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("remove owner: got %v, want ErrValidation", err)
	}
}

// Team grants flow to members through the Membership Resolver and stop
// flowing the moment membership ends.
func TestTeamGrantInheritanceEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	team, err := f.teamSvc.CreateTeam(ctx, "alice", "research")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := f.teamSvc.AddMember(ctx, "alice", team.ID, "bob"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	folder := f.mustCreateFolder(t, "carol", "shared-notes", "")
	if err := f.grantSvc.GrantRole(ctx, "carol", &services.GrantRequest{
		FolderID:    folder.ID,
		SubjectKind: models.SubjectTeam,
		SubjectID:   team.ID,
		RoleName:    models.RoleEditor,
	}); err != nil {
		t.Fatalf("GrantRole(team): %v", err)
	}

	if _, err := f.folderSvc.RenameFolder(ctx, "bob", folder.ID, "renamed"); err != nil {
		t.Fatalf("member rename via team grant: %v", err)
	}

	if err := f.teamSvc.RemoveMember(ctx, "alice", team.ID, "bob"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if _, err := f.folderSvc.GetFolder(ctx, "bob", folder.ID); !errors.Is(err, domain.ErrResourceHidden) {
		t.Errorf("after removal: got %v, want ErrResourceHidden", err)
	}
}

func TestTeamOwnedFolderCreation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	team, err := f.teamSvc.CreateTeam(ctx, "alice", "research")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	folder, err := f.folderSvc.CreateFolder(ctx, &services.CreateFolderRequest{
		UserID: "alice",
		Name:   "team-space",
		TeamID: &team.ID,
	})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Owner.Type != models.OwnerTeam || folder.Owner.TeamID == nil || *folder.Owner.TeamID != team.ID {
		t.Errorf("owner = %+v, want team %s", folder.Owner, team.ID)
	}

	// The creator, not the team, gets the seeded Admin grant.
	caps, err := f.grantSvc.EffectiveCapabilities(ctx, "alice", folder.ID)
	if err != nil {
		t.Fatalf("EffectiveCapabilities: %v", err)
	}
	if !caps.Has(models.CapFolderAdmin) {
		t.Errorf("creator caps = %v, want admin", caps.Slice())
	}
}

func TestDeleteTeamStopsGrantResolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	team, err := f.teamSvc.CreateTeam(ctx, "alice", "research")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := f.teamSvc.AddMember(ctx, "alice", team.ID, "bob"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	folder := f.mustCreateFolder(t, "carol", "notes", "")
	if err := f.grantSvc.GrantRole(ctx, "carol", &services.GrantRequest{
		FolderID:    folder.ID,
		SubjectKind: models.SubjectTeam,
		SubjectID:   team.ID,
		RoleName:    models.RoleViewer,
	}); err != nil {
		t.Fatalf("GrantRole(team): %v", err)
	}

	if err := f.teamSvc.DeleteTeam(ctx, "alice", team.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}

	if _, err := f.folderSvc.GetFolder(ctx, "bob", folder.ID); !errors.Is(err, domain.ErrResourceHidden) {
		t.Errorf("after team delete: got %v, want ErrResourceHidden", err)
	}
}
