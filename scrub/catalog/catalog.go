package catalog

import (
	"fmt"
	"sync"

	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/models"
)

// Reference holds the lookup data consumed by rules whose decision depends on
// configured code sets.
type Reference struct {
	// PlaceOfService lists the accepted place of service codes.
	PlaceOfService []string `toml:"place_of_service"`
	// Necessity maps a procedure code (or "*") to the diagnosis patterns that
	// support it. A pattern is an exact code, a "PREFIX*" or "*".
	Necessity map[string][]string `toml:"necessity"`
}

func (r Reference) clone() Reference {
	out := Reference{PlaceOfService: append([]string{}, r.PlaceOfService...)}
	if r.Necessity != nil {
		out.Necessity = make(map[string][]string, len(r.Necessity))
		for k, v := range r.Necessity {
			out.Necessity[k] = append([]string{}, v...)
		}
	}
	return out
}

// Catalog is the registry of validation rules. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	rules     []models.Rule
	index     map[string]int
	reference Reference
	// toggles made at runtime, re-applied when the definitions are reloaded
	overrides map[string]bool
}

// New builds a catalog from rule definitions. An empty or inconsistent set of
// rules is a fatal configuration error.
func New(rules []models.Rule, reference Reference) (*Catalog, error) {
	c := &Catalog{overrides: make(map[string]bool)}
	if err := c.replace(rules, reference); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultRules(), defaultReference())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) replace(rules []models.Rule, reference Reference) error {
	if len(rules) == 0 {
		return &scruberrors.CatalogError{Msg: "catalog has no rules"}
	}

	index := make(map[string]int, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return &scruberrors.CatalogError{Msg: fmt.Sprintf("rule at position %d has no id", i)}
		}
		if _, ok := index[r.ID]; ok {
			return &scruberrors.CatalogError{Msg: fmt.Sprintf("duplicate rule id %s", r.ID)}
		}
		if !r.Category.Valid() {
			return &scruberrors.CatalogError{Msg: fmt.Sprintf("rule %s has unknown category %q", r.ID, r.Category)}
		}
		if !r.Severity.Valid() {
			return &scruberrors.CatalogError{Msg: fmt.Sprintf("rule %s has unknown severity %q", r.ID, r.Severity)}
		}
		index[r.ID] = i
	}

	copied := append([]models.Rule{}, rules...)
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, enabled := range c.overrides {
		if i, ok := index[id]; ok {
			copied[i].Enabled = enabled
		}
	}
	c.rules = copied
	c.index = index
	c.reference = reference.clone()
	return nil
}

// ListRules returns every rule in catalog order.
func (c *Catalog) ListRules() []models.Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Rule{}, c.rules...)
}

// ListEnabledRules returns the enabled rules, restricted to the given
// categories when any are supplied.
func (c *Catalog) ListEnabledRules(categories ...models.Category) []models.Rule {
	return c.Snapshot().EnabledRules(categories...)
}

// Rule returns the rule with the given id.
func (c *Catalog) Rule(ruleID string) (models.Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[ruleID]
	if !ok {
		return models.Rule{}, &scruberrors.RuleNotFoundError{RuleID: ruleID}
	}
	return c.rules[i], nil
}

// SetEnabled toggles a rule in memory.
func (c *Catalog) SetEnabled(ruleID string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[ruleID]
	if !ok {
		return &scruberrors.RuleNotFoundError{RuleID: ruleID}
	}
	c.rules[i].Enabled = enabled
	c.overrides[ruleID] = enabled
	return nil
}

// ApplySettings applies persisted toggles. Settings for rules the catalog
// does not define are returned as unknown ids rather than failing.
func (c *Catalog) ApplySettings(settings []models.RuleSetting) (unknown []string) {
	for _, s := range settings {
		if err := c.SetEnabled(s.RuleID, s.Enabled); err != nil {
			unknown = append(unknown, s.RuleID)
		}
	}
	return unknown
}

// Snapshot returns an immutable copy of the catalog for one validation run.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Rules:     append([]models.Rule{}, c.rules...),
		Reference: c.reference.clone(),
	}
}

// Snapshot is a point-in-time view of the catalog. Toggling rules on the
// Catalog never affects an existing Snapshot.
type Snapshot struct {
	Rules     []models.Rule
	Reference Reference
}

// EnabledRules returns enabled rules in catalog order, restricted to the
// given categories when any are supplied.
func (s Snapshot) EnabledRules(categories ...models.Category) []models.Rule {
	allowed := make(map[models.Category]bool, len(categories))
	for _, cat := range categories {
		allowed[cat] = true
	}

	var rules []models.Rule
	for _, r := range s.Rules {
		if !r.Enabled {
			continue
		}
		if len(allowed) > 0 && !allowed[r.Category] {
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

// Validate reports a fatal configuration error for an empty snapshot.
func (s Snapshot) Validate() error {
	if len(s.Rules) == 0 {
		return &scruberrors.CatalogError{Msg: "catalog has no rules"}
	}
	return nil
}
