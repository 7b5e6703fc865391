// Package scenario holds the catalog of synthetic workloads the validator can
// run. Every scenario carries the totals its generated data must add up to.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// All selects every scenario in the catalog.
const All = "all"

// ErrUnknownScenario is returned when a name is not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// Catalog is an immutable, ordered set of scenarios.
type Catalog struct {
	order     []string
	scenarios map[string]Scenario
	queries   map[string]string
}

// NewCatalog builds a catalog, rejecting duplicate names and scenarios whose
// expectations disagree with their resources.
func NewCatalog(scenarios ...Scenario) (*Catalog, error) {
	c := &Catalog{scenarios: make(map[string]Scenario, len(scenarios))}
	for _, s := range scenarios {
		if err := c.add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(s Scenario) error {
	if s.Name == "" {
		return errors.New("scenario name must not be empty")
	}
	if _, exists := c.scenarios[s.Name]; exists {
		return fmt.Errorf("duplicate scenario %q", s.Name)
	}
	if err := s.check(); err != nil {
		return err
	}
	c.order = append(c.order, s.Name)
	c.scenarios[s.Name] = s.Clone()
	return nil
}

// Get returns a copy of the named scenario.
func (c *Catalog) Get(name string) (Scenario, error) {
	s, ok := c.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownScenario, name, strings.Join(c.Names(), ", "))
	}
	return s.Clone(), nil
}

// Names lists scenario names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Select resolves names to scenarios. An empty list or "all" selects the whole
// catalog. Duplicates are dropped, preserving first occurrence.
func (c *Catalog) Select(names []string) ([]Scenario, error) {
	if len(names) == 0 || (len(names) == 1 && names[0] == All) {
		names = c.order
	}
	seen := make(map[string]bool, len(names))
	var out []Scenario
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		s, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// QueryOverrides returns the SQL template overrides loaded with the catalog.
func (c *Catalog) QueryOverrides() map[string]string {
	out := make(map[string]string, len(c.queries))
	for k, v := range c.queries {
		out[k] = v
	}
	return out
}

// Merge returns a new catalog holding c's scenarios with other's scenarios
// replacing or appending to them.
func (c *Catalog) Merge(other *Catalog) (*Catalog, error) {
	merged := &Catalog{
		scenarios: make(map[string]Scenario, len(c.scenarios)+len(other.scenarios)),
		queries:   c.QueryOverrides(),
	}
	for _, name := range c.order {
		if replacement, ok := other.scenarios[name]; ok {
			merged.order = append(merged.order, name)
			merged.scenarios[name] = replacement.Clone()
			continue
		}
		merged.order = append(merged.order, name)
		merged.scenarios[name] = c.scenarios[name].Clone()
	}
	for _, name := range other.order {
		if _, ok := merged.scenarios[name]; ok {
			continue
		}
		if err := merged.add(other.scenarios[name]); err != nil {
			return nil, err
		}
	}
	for k, v := range other.queries {
		merged.queries[k] = v
	}
	return merged, nil
}

// Summary renders one line per scenario for listing.
func (c *Catalog) Summary() []string {
	lines := make([]string, 0, len(c.order))
	for _, name := range c.order {
		s := c.scenarios[name]
		types := make([]string, 0, len(s.Resources))
		for _, r := range s.Resources {
			types = append(types, r.Type)
		}
		sort.Strings(types)
		lines = append(lines, fmt.Sprintf("%s\t%dh\t%s %s\t%d records\t%s",
			s.Name, s.DurationHours, s.ExpectedTotalCost.StringFixed(2), s.Currency, s.RecordCount(), strings.Join(types, ",")))
	}
	return lines
}
