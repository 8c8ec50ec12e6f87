package authz

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"lodestar/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// catalogFile mirrors the embedded YAML structure.
type catalogFile struct {
	Scope        string   `yaml:"scope"`
	Capabilities []string `yaml:"capabilities"`
	Roles        []struct {
		Name         string   `yaml:"name"`
		Capabilities []string `yaml:"capabilities"`
	} `yaml:"roles"`
}

// RoleDefinition is a seeded role and its capability bundle.
type RoleDefinition struct {
	Name         string
	Scope        models.RoleScope
	Capabilities []models.Capability
}

// Catalog is the read-only permission catalog loaded from the embedded YAML
// at startup. It is the only in-process shared state of the engine and is
// never mutated after construction, so it needs no locking.
type Catalog struct {
	scope        models.RoleScope
	capabilities []models.Capability
	roles        []RoleDefinition
	byRole       map[string]models.CapabilitySet
}

// NewCatalog loads the embedded permission catalog.
func NewCatalog() (*Catalog, error) {
	data, err := configFiles.ReadFile("config/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	c := &Catalog{
		scope:  models.RoleScope(file.Scope),
		byRole: make(map[string]models.CapabilitySet, len(file.Roles)),
	}

	known := make(map[models.Capability]struct{}, len(file.Capabilities))
	for _, name := range file.Capabilities {
		cap := models.Capability(name)
		if _, dup := known[cap]; dup {
			return nil, fmt.Errorf("duplicate capability %q in catalog", name)
		}
		known[cap] = struct{}{}
		c.capabilities = append(c.capabilities, cap)
	}

	for _, role := range file.Roles {
		if _, dup := c.byRole[role.Name]; dup {
			return nil, fmt.Errorf("duplicate role %q in catalog", role.Name)
		}

		def := RoleDefinition{Name: role.Name, Scope: c.scope}
		set := models.NewCapabilitySet()
		for _, name := range role.Capabilities {
			cap := models.Capability(name)
			if _, ok := known[cap]; !ok {
				return nil, fmt.Errorf("role %q references unknown capability %q", role.Name, name)
			}
			def.Capabilities = append(def.Capabilities, cap)
			set.Add(cap)
		}

		c.roles = append(c.roles, def)
		c.byRole[role.Name] = set
	}

	return c, nil
}

// Scope returns the resource kind the catalog's roles apply to.
func (c *Catalog) Scope() models.RoleScope { return c.scope }

// Capabilities returns the seeded capabilities in declaration order.
func (c *Catalog) Capabilities() []models.Capability { return c.capabilities }

// Roles returns the seeded role definitions in declaration order.
func (c *Catalog) Roles() []RoleDefinition { return c.roles }

// RoleCapabilities returns the capability bundle of a role.
func (c *Catalog) RoleCapabilities(roleName string) (models.CapabilitySet, bool) {
	set, ok := c.byRole[roleName]
	return set, ok
}

// CapabilitiesForRoles returns the union of the named roles' bundles.
// Unknown role names are skipped: a grant referencing a role the catalog no
// longer defines contributes nothing.
func (c *Catalog) CapabilitiesForRoles(roleNames []string) models.CapabilitySet {
	out := models.NewCapabilitySet()
	for _, name := range roleNames {
		if set, ok := c.byRole[name]; ok {
			out.Union(set)
		}
	}
	return out
}
