package seed

import (
	"context"
	"fmt"
	"log/slog"

	"lodestar/internal/domain/repositories"
	"lodestar/internal/service/authz"
)

// Catalog persists the embedded permission catalog: capabilities first, then
// roles, then the role-capability bundles. Every insert is idempotent by
// natural key, so re-running at every process start (including two processes
// starting at once) is safe.
func Catalog(ctx context.Context, repo repositories.CatalogRepository, catalog *authz.Catalog, logger *slog.Logger) error {
	for _, cap := range catalog.Capabilities() {
		if err := repo.EnsureCapability(ctx, cap); err != nil {
			return fmt.Errorf("seed capability: %w", err)
		}
	}

	for _, role := range catalog.Roles() {
		if err := repo.EnsureRole(ctx, role.Name, role.Scope); err != nil {
			return fmt.Errorf("seed role: %w", err)
		}
		for _, cap := range role.Capabilities {
			if err := repo.EnsureRoleCapability(ctx, role.Name, role.Scope, cap); err != nil {
				return fmt.Errorf("seed role capability: %w", err)
			}
		}
	}

	// Cross-check: the persisted bundles must resolve exactly as the
	// embedded catalog does. Ensure* only inserts, so rows left behind by
	// an older catalog (say a role that used to bundle an extra capability)
	// would silently widen every grant resolved through the database.
	for _, role := range catalog.Roles() {
		stored, err := repo.CapabilitiesForRoles(ctx, []string{role.Name})
		if err != nil {
			return fmt.Errorf("verify role %s: %w", role.Name, err)
		}
		want := catalog.CapabilitiesForRoles([]string{role.Name})
		if !stored.Equal(want) {
			return fmt.Errorf("role %s: stored capabilities %v diverge from catalog %v",
				role.Name, stored.Slice(), want.Slice())
		}
	}

	logger.Info("permission catalog seeded",
		"capabilities", len(catalog.Capabilities()),
		"roles", len(catalog.Roles()),
	)

	return nil
}
