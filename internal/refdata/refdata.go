// Package refdata loads the read-only reference data a resolution batch
// needs: entity profiles, GL mappings, dimension rules, the known-exception
// registry and seed vendor records. Contradictory or incomplete
// configuration fails here, at load time, never per invoice.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/feedlot-ap/feedlot-ap/internal/coding"
	"github.com/feedlot-ap/feedlot-ap/internal/entity"
	"github.com/feedlot-ap/feedlot-ap/internal/recon"
	"github.com/feedlot-ap/feedlot-ap/internal/vendor"
)

// Bundle is everything the pipeline reads but does not own.
type Bundle struct {
	Profiles       []entity.Profile       `json:"entity_profiles"`
	Mappings       coding.MappingSet      `json:"gl_mappings"`
	DimensionRules []coding.DimensionRule `json:"dimension_rules"`
	Exceptions     recon.StaticExceptions `json:"known_exceptions"`
	Vendors        []vendor.Vendor        `json:"vendors,omitempty"`
	Aliases        []vendor.Alias         `json:"vendor_aliases,omitempty"`
}

// Load reads and validates a reference-data bundle from a JSON file.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read %s: %w", path, err)
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("refdata: parse %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("refdata: %s: %w", path, err)
	}
	return &b, nil
}

// Validate fails fast on missing or contradictory reference data.
func (b *Bundle) Validate() error {
	if len(b.Profiles) == 0 {
		return fmt.Errorf("no entity profiles configured")
	}
	seen := make(map[string]bool, len(b.Profiles))
	for _, p := range b.Profiles {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("entity profile %q has no id", p.Name)
		}
		if seen[id] {
			return fmt.Errorf("duplicate entity profile id %s", id)
		}
		seen[id] = true
	}

	// NewEngine runs the full mapping and dimension-rule validation.
	if _, err := coding.NewEngine(b.Mappings, b.DimensionRules); err != nil {
		return err
	}

	for _, v := range b.Vendors {
		if v.ID == "" || v.EntityID == "" {
			return fmt.Errorf("vendor %q missing id or entity", v.Name)
		}
		if !seen[v.EntityID] {
			return fmt.Errorf("vendor %s references unknown entity %s", v.ID, v.EntityID)
		}
	}
	for _, a := range b.Aliases {
		if a.EntityID == "" || a.NormalizedName == "" || a.VendorID == "" {
			return fmt.Errorf("alias %q/%q is incomplete", a.EntityID, a.NormalizedName)
		}
	}
	return nil
}

// VendorCatalog builds an in-memory catalog from the seed vendors.
func (b *Bundle) VendorCatalog() vendor.MemoryCatalog {
	catalog := make(vendor.MemoryCatalog, len(b.Profiles))
	for _, v := range b.Vendors {
		catalog[v.EntityID] = append(catalog[v.EntityID], v)
	}
	return catalog
}

// AliasSeed builds an in-memory alias store from the seed aliases.
func (b *Bundle) AliasSeed() *vendor.MemoryAliasStore {
	return vendor.NewMemoryAliasStore(b.Aliases...)
}

// Profile returns the profile for an entity id.
func (b *Bundle) Profile(entityID string) (entity.Profile, bool) {
	for _, p := range b.Profiles {
		if p.ID == entityID {
			return p, true
		}
	}
	return entity.Profile{}, false
}
