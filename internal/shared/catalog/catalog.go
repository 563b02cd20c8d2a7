// Package catalog provides the declarative module catalog shared by the
// server-side access resolver and the client-side mirror. The always-on and
// RBAC-only module sets live here and only here; duplicating them anywhere
// else is a drift hazard.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed modules.yaml
var modulesYAML []byte

// Submodule describes a feature area nested under a module.
type Submodule struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// Module describes a licensable feature module of the suite.
type Module struct {
	Key           string      `yaml:"key"`
	Name          string      `yaml:"name"`
	UpgradePrompt string      `yaml:"upgrade_prompt"`
	Submodules    []Submodule `yaml:"submodules"`
}

type catalogFile struct {
	AlwaysOn []string            `yaml:"always_on"`
	RBACOnly []string            `yaml:"rbac_only"`
	Modules  []Module            `yaml:"modules"`
	Tiers    map[string][]string `yaml:"tiers"`
}

// Catalog is the parsed module catalog. It is immutable after Load.
type Catalog struct {
	modules    map[string]Module
	order      []string
	alwaysOn   map[string]struct{}
	rbacOnly   map[string]struct{}
	submodules map[string]map[string]Submodule
	tiers      map[string][]string
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
	defaultCatalogErr  error
)

// Load parses the embedded catalog file and validates cross-references.
func Load() (*Catalog, error) {
	return parse(modulesYAML)
}

// Default returns the process-wide catalog, parsing it on first use.
// It panics on a malformed embedded catalog since that is a build defect,
// not a runtime condition.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = Load()
	})
	if defaultCatalogErr != nil {
		panic(fmt.Sprintf("catalog: embedded modules.yaml is invalid: %v", defaultCatalogErr))
	}
	return defaultCatalog
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse module catalog: %w", err)
	}

	c := &Catalog{
		modules:    make(map[string]Module, len(file.Modules)),
		alwaysOn:   make(map[string]struct{}, len(file.AlwaysOn)),
		rbacOnly:   make(map[string]struct{}, len(file.RBACOnly)),
		submodules: make(map[string]map[string]Submodule),
		tiers:      file.Tiers,
	}

	for _, m := range file.Modules {
		if m.Key == "" {
			return nil, fmt.Errorf("module catalog contains a module without a key")
		}
		if _, exists := c.modules[m.Key]; exists {
			return nil, fmt.Errorf("duplicate module key in catalog: %s", m.Key)
		}
		c.modules[m.Key] = m
		c.order = append(c.order, m.Key)

		subs := make(map[string]Submodule, len(m.Submodules))
		for _, s := range m.Submodules {
			if s.Key == "" {
				return nil, fmt.Errorf("module %s contains a submodule without a key", m.Key)
			}
			if _, exists := subs[s.Key]; exists {
				return nil, fmt.Errorf("duplicate submodule key %s under module %s", s.Key, m.Key)
			}
			subs[s.Key] = s
		}
		c.submodules[m.Key] = subs
	}

	for _, key := range file.AlwaysOn {
		if _, ok := c.modules[key]; !ok {
			return nil, fmt.Errorf("always_on references unknown module: %s", key)
		}
		c.alwaysOn[key] = struct{}{}
	}
	for _, key := range file.RBACOnly {
		if _, ok := c.modules[key]; !ok {
			return nil, fmt.Errorf("rbac_only references unknown module: %s", key)
		}
		c.rbacOnly[key] = struct{}{}
	}
	for tier, keys := range file.Tiers {
		for _, key := range keys {
			if _, ok := c.modules[key]; !ok {
				return nil, fmt.Errorf("tier %s references unknown module: %s", tier, key)
			}
		}
	}

	return c, nil
}

// Module returns the module definition for a key.
func (c *Catalog) Module(key string) (Module, bool) {
	m, ok := c.modules[key]
	return m, ok
}

// Modules returns all modules in catalog order.
func (c *Catalog) Modules() []Module {
	result := make([]Module, 0, len(c.order))
	for _, key := range c.order {
		result = append(result, c.modules[key])
	}
	return result
}

// HasModule reports whether the key names a known module.
func (c *Catalog) HasModule(key string) bool {
	_, ok := c.modules[key]
	return ok
}

// HasSubmodule reports whether the submodule exists under the module.
func (c *Catalog) HasSubmodule(moduleKey, submoduleKey string) bool {
	subs, ok := c.submodules[moduleKey]
	if !ok {
		return false
	}
	_, ok = subs[submoduleKey]
	return ok
}

// IsAlwaysOn reports whether the module bypasses entitlement checks entirely.
func (c *Catalog) IsAlwaysOn(key string) bool {
	_, ok := c.alwaysOn[key]
	return ok
}

// IsRBACOnly reports whether the module skips entitlement and is gated by
// RBAC alone.
func (c *Catalog) IsRBACOnly(key string) bool {
	_, ok := c.rbacOnly[key]
	return ok
}

// IsLicensed reports whether the module participates in entitlement at all.
// Always-on and RBAC-only modules are never licensed per organization.
func (c *Catalog) IsLicensed(key string) bool {
	if !c.HasModule(key) {
		return false
	}
	return !c.IsAlwaysOn(key) && !c.IsRBACOnly(key)
}

// TierModules returns the module keys enabled by default for a license tier.
func (c *Catalog) TierModules(tier string) ([]string, bool) {
	keys, ok := c.tiers[tier]
	if !ok {
		return nil, false
	}
	result := make([]string, len(keys))
	copy(result, keys)
	return result, true
}

// Tiers returns the known license tier names.
func (c *Catalog) Tiers() []string {
	result := make([]string, 0, len(c.tiers))
	for tier := range c.tiers {
		result = append(result, tier)
	}
	return result
}
