package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
)

func newTestCache(t *testing.T) (services.CapabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCapabilityCache(client, time.Minute, discardLogger()), mr
}

func TestRedisCapabilityCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	if _, ok := cache.Get(ctx, "alice", "f1"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	caps := models.NewCapabilitySet(models.CapFolderRead, models.CapFolderWrite)
	cache.Set(ctx, "alice", "f1", caps)

	got, ok := cache.Get(ctx, "alice", "f1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !got.Has(models.CapFolderRead) || !got.Has(models.CapFolderWrite) || got.Has(models.CapFolderAdmin) {
		t.Errorf("cached set = %v", got.Slice())
	}

	// Empty sets round-trip too: a cached denial is still a hit.
	cache.Set(ctx, "bob", "f1", models.NewCapabilitySet())
	empty, ok := cache.Get(ctx, "bob", "f1")
	if !ok {
		t.Fatal("expected hit for cached empty set")
	}
	if len(empty) != 0 {
		t.Errorf("cached empty set = %v", empty.Slice())
	}
}

func TestRedisCapabilityCacheInvalidateFolder(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	caps := models.NewCapabilitySet(models.CapFolderRead)
	cache.Set(ctx, "alice", "f1", caps)
	cache.Set(ctx, "bob", "f1", caps)
	cache.Set(ctx, "alice", "f2", caps)

	cache.InvalidateFolder(ctx, "f1")

	if _, ok := cache.Get(ctx, "alice", "f1"); ok {
		t.Error("alice/f1 should be invalidated")
	}
	if _, ok := cache.Get(ctx, "bob", "f1"); ok {
		t.Error("bob/f1 should be invalidated")
	}
	if _, ok := cache.Get(ctx, "alice", "f2"); !ok {
		t.Error("alice/f2 should survive a different folder's invalidation")
	}
}

func TestRedisCapabilityCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	caps := models.NewCapabilitySet(models.CapFolderRead)
	cache.Set(ctx, "alice", "f1", caps)
	cache.Set(ctx, "alice", "f2", caps)
	cache.Set(ctx, "bob", "f1", caps)

	cache.InvalidateUser(ctx, "alice")

	if _, ok := cache.Get(ctx, "alice", "f1"); ok {
		t.Error("alice/f1 should be invalidated")
	}
	if _, ok := cache.Get(ctx, "alice", "f2"); ok {
		t.Error("alice/f2 should be invalidated")
	}
	if _, ok := cache.Get(ctx, "bob", "f1"); !ok {
		t.Error("bob/f1 should survive another user's invalidation")
	}
}

func TestRedisCapabilityCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	cache.Set(ctx, "alice", "f1", models.NewCapabilitySet(models.CapFolderRead))
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, "alice", "f1"); ok {
		t.Error("entry should expire after the TTL")
	}
}

func TestEvaluatorUsesCache(t *testing.T) {
	ctx := context.Background()

	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	cache, _ := newTestCache(t)
	grants := newFakeGrantRepo()
	membership := newFakeMembershipRepo()
	folders := newFakeFolderRepo()
	folders.folders["f1"] = &models.Folder{ID: "f1", Owner: models.UserOwner("alice"), Visibility: models.VisibilityPrivate}
	grants.grant(models.SubjectUser, "bob", "f1", models.RoleViewer)

	evaluator := NewEvaluator(grants, membership, folders, catalog, cache, discardLogger())

	caps, err := evaluator.EffectiveCapabilities(ctx, "bob", "f1")
	if err != nil {
		t.Fatalf("EffectiveCapabilities: %v", err)
	}
	if !caps.Has(models.CapFolderRead) {
		t.Fatal("expected read capability")
	}

	// Until invalidated, the cached set masks grant-store changes.
	grants.grant(models.SubjectUser, "bob", "f1", models.RoleAdmin)
	caps, err = evaluator.EffectiveCapabilities(ctx, "bob", "f1")
	if err != nil {
		t.Fatalf("EffectiveCapabilities: %v", err)
	}
	if caps.Has(models.CapFolderAdmin) {
		t.Error("cached set should not yet reflect the new grant")
	}

	cache.InvalidateFolder(ctx, "f1")
	caps, err = evaluator.EffectiveCapabilities(ctx, "bob", "f1")
	if err != nil {
		t.Fatalf("EffectiveCapabilities: %v", err)
	}
	if !caps.Has(models.CapFolderAdmin) {
		t.Error("invalidation should expose the new grant")
	}
}

// A caller-supplied membership hint must stay out of the cache: neither
// seeding it with hint-derived sets nor being answered from it.
func TestDecideWithTeamsDoesNotTouchCache(t *testing.T) {
	ctx := context.Background()

	catalog, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	cache, _ := newTestCache(t)
	grants := newFakeGrantRepo()
	membership := newFakeMembershipRepo()
	folders := newFakeFolderRepo()
	folders.folders["f1"] = &models.Folder{ID: "f1", Owner: models.UserOwner("carol"), Visibility: models.VisibilityPrivate}
	grants.grant(models.SubjectTeam, "team-x", "f1", models.RoleEditor)

	evaluator := NewEvaluator(grants, membership, folders, catalog, cache, discardLogger())
	ref := models.ResourceRef{Type: models.ResourceFolder, ID: "f1"}

	// bob presents a membership hint the resolver does not back.
	d, err := evaluator.DecideWithTeams(ctx, "bob", []string{"team-x"}, ref, models.CapFolderWrite)
	if err != nil {
		t.Fatalf("DecideWithTeams: %v", err)
	}
	if !d.Allowed {
		t.Fatal("hinted decision should allow via the team grant")
	}

	if _, ok := cache.Get(ctx, "bob", "f1"); ok {
		t.Error("hint-derived capability set was written to the cache")
	}

	// The authoritative path resolves no teams for bob and must deny.
	d, err = evaluator.Decide(ctx, "bob", ref, models.CapFolderWrite)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Allowed {
		t.Error("authoritative decision allowed; the hint leaked across calls")
	}

	// The reverse direction: an authoritative cached set must not answer a
	// hinted call.
	cache.Set(ctx, "dave", "f1", models.NewCapabilitySet())
	d, err = evaluator.DecideWithTeams(ctx, "dave", []string{"team-x"}, ref, models.CapFolderWrite)
	if err != nil {
		t.Fatalf("DecideWithTeams: %v", err)
	}
	if !d.Allowed {
		t.Error("hinted decision was answered from the cached empty set")
	}
}
