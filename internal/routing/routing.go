// Package routing derives a ticket's data manager, region and business
// segment from the requesting function.
//
// Rules are data: Default returns the built-in table, and LoadRules reads an
// override from a YAML or TOML file. A Router holds the active rule set and
// can be swapped atomically while requests are being served.
package routing

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/adi-analytics/ticketdesk/internal/types"
)

// Placement is the (region, business segment) pair assigned to a ticket.
type Placement struct {
	Region  types.Region          `yaml:"region" toml:"region" json:"region"`
	Segment types.BusinessSegment `yaml:"segment" toml:"segment" json:"segment"`
}

// Group is a named set of functions sharing a data manager and, optionally,
// a fixed placement.
type Group struct {
	Name        string     `yaml:"name" toml:"name" json:"name"`
	Functions   []string   `yaml:"functions" toml:"functions" json:"functions"`
	DataManager string     `yaml:"data_manager" toml:"data_manager" json:"data_manager"`
	Placement   *Placement `yaml:"placement,omitempty" toml:"placement,omitempty" json:"placement,omitempty"`
}

// PrefixRule places functions whose upper-cased name starts with Prefix.
type PrefixRule struct {
	Prefix    string    `yaml:"prefix" toml:"prefix" json:"prefix"`
	Placement Placement `yaml:"placement" toml:"placement" json:"placement"`
}

// Rules is a complete routing table. Placement is decided by the first group
// with a placement that contains the function, then by the first matching
// prefix, then by Default.
type Rules struct {
	Groups   []Group      `yaml:"groups" toml:"groups" json:"groups"`
	Prefixes []PrefixRule `yaml:"prefixes" toml:"prefixes" json:"prefixes"`
	Default  Placement    `yaml:"default" toml:"default" json:"default"`
}

// Decision is the routing outcome for one function.
type Decision struct {
	Function    string                `json:"function"`
	DataManager string                `json:"data_manager"`
	Region      types.Region          `json:"region"`
	Segment     types.BusinessSegment `json:"business_segment"`
}

// Default returns the built-in routing table.
func Default() *Rules {
	return &Rules{
		Groups: []Group{
			{
				Name: "analytics",
				Functions: []string{
					"Branch", "Category Management", "Credit", "Customer Service",
					"Data Analytics", "Data Comm", "DX", "Inventory", "Other",
					"Outbound Telesales", "Pro AV", "RAS/NAM",
				},
				DataManager: "ana-mari.pita@adiglobal.com; john.larosa@adiglobal.com",
			},
			{
				Name: "snap",
				Functions: []string{
					"Snap Accounting", "Snap DX", "Snap Manufacturing & Quality",
					"Snap Operations", "Snap Rewards & Marketing", "Snap Sales",
					"Snap Support & Education",
				},
				DataManager: "dale.slaughenhaupt@adiglobal.com",
				Placement:   &Placement{Region: types.RegionNA, Segment: types.SegmentSnapOne},
			},
		},
		Prefixes: []PrefixRule{
			{Prefix: "EMEA", Placement: Placement{Region: types.RegionEMEA, Segment: types.SegmentEMEA}},
			{Prefix: "NA", Placement: Placement{Region: types.RegionNA, Segment: types.SegmentBusinessSupport}},
		},
		Default: Placement{Region: types.RegionNA, Segment: types.SegmentBusinessSupport},
	}
}

// DataManager returns the data manager for function, or "" when no group
// lists it. Matching is exact.
func (r *Rules) DataManager(function string) string {
	for _, g := range r.Groups {
		if containsFunction(g.Functions, function) {
			return g.DataManager
		}
	}
	return ""
}

// Place returns the region and business segment for function.
func (r *Rules) Place(function string) Placement {
	for _, g := range r.Groups {
		if g.Placement != nil && containsFunction(g.Functions, function) {
			return *g.Placement
		}
	}
	upper := strings.ToUpper(function)
	for _, p := range r.Prefixes {
		if strings.HasPrefix(upper, strings.ToUpper(p.Prefix)) {
			return p.Placement
		}
	}
	return r.Default
}

// Route returns the full routing decision for function.
func (r *Rules) Route(function string) Decision {
	p := r.Place(function)
	return Decision{
		Function:    function,
		DataManager: r.DataManager(function),
		Region:      p.Region,
		Segment:     p.Segment,
	}
}

// Validate checks that the table is usable.
func (r *Rules) Validate() error {
	seen := make(map[string]bool)
	for i, g := range r.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("group %d: name is required", i)
		}
		if seen[g.Name] {
			return fmt.Errorf("group %q defined twice", g.Name)
		}
		seen[g.Name] = true
		if len(g.Functions) == 0 {
			return fmt.Errorf("group %q: at least one function is required", g.Name)
		}
		if g.Placement != nil {
			if err := g.Placement.validate(); err != nil {
				return fmt.Errorf("group %q: %w", g.Name, err)
			}
		}
	}
	for i, p := range r.Prefixes {
		if strings.TrimSpace(p.Prefix) == "" {
			return fmt.Errorf("prefix rule %d: prefix is required", i)
		}
		if err := p.Placement.validate(); err != nil {
			return fmt.Errorf("prefix %q: %w", p.Prefix, err)
		}
	}
	if err := r.Default.validate(); err != nil {
		return fmt.Errorf("default: %w", err)
	}
	return nil
}

func (p Placement) validate() error {
	if !p.Region.IsValid() {
		return fmt.Errorf("unknown region %q", p.Region)
	}
	if !p.Segment.IsValid() {
		return fmt.Errorf("unknown business segment %q", p.Segment)
	}
	return nil
}

func containsFunction(fns []string, fn string) bool {
	for _, f := range fns {
		if f == fn {
			return true
		}
	}
	return false
}

// Router serves the active rule set. The zero value is not usable; use NewRouter.
type Router struct {
	rules atomic.Pointer[Rules]
}

// NewRouter returns a router serving rules, or Default() when rules is nil.
func NewRouter(rules *Rules) *Router {
	if rules == nil {
		rules = Default()
	}
	r := &Router{}
	r.rules.Store(rules)
	return r
}

// Rules returns the active rule set. Callers must not modify it.
func (r *Router) Rules() *Rules {
	return r.rules.Load()
}

// Swap replaces the active rule set.
func (r *Router) Swap(rules *Rules) {
	r.rules.Store(rules)
}

// Route routes function with the active rule set.
func (r *Router) Route(function string) Decision {
	return r.Rules().Route(function)
}
