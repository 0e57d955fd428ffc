package routing

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"pagewell-hq/courier/pkg/fetch"
	"pagewell-hq/courier/pkg/providers"
)

// Table is an immutable snapshot of routing rules plus the provider
// profiles used for capability filtering and weight tie-breaking.
type Table struct {
	exact    map[string]*Rule
	byClass  map[fetch.ContentClass]*Rule
	wildcard *Rule
	profiles map[string]providers.Profile
}

// NewTable builds a table from rules and profiles. Exactly one wildcard
// rule is required so every request resolves against some rule. Rules
// referencing unknown providers are rejected: a typo in a rule should
// fail at load time, not silently route nowhere.
func NewTable(rules []Rule, profiles map[string]providers.Profile) (*Table, error) {
	t := &Table{
		exact:    make(map[string]*Rule),
		byClass:  make(map[fetch.ContentClass]*Rule),
		profiles: profiles,
	}

	for i := range rules {
		r := rules[i]
		for _, name := range r.Providers {
			if _, ok := profiles[name]; !ok {
				return nil, fmt.Errorf("routing rule references unknown provider %q", name)
			}
		}
		switch r.Kind {
		case KindExact:
			if _, dup := t.exact[r.Target]; dup {
				return nil, fmt.Errorf("duplicate exact rule for target %q", r.Target)
			}
			t.exact[r.Target] = &r
		case KindClass:
			if _, dup := t.byClass[r.Class]; dup {
				return nil, fmt.Errorf("duplicate class rule for %q", r.Class)
			}
			t.byClass[r.Class] = &r
		case KindWildcard:
			if t.wildcard != nil {
				return nil, fmt.Errorf("multiple wildcard rules")
			}
			t.wildcard = &r
		}
	}

	if t.wildcard == nil {
		return nil, fmt.Errorf("a wildcard default rule is required")
	}
	return t, nil
}

// Resolve produces the ordered, capability-filtered provider list for
// the request. An empty list means no configured provider satisfies the
// request's required capabilities; the engine fails fast with a
// capability-mismatch rather than attempting an unsuitable provider.
func (t *Table) Resolve(req *fetch.Request) []string {
	rule := t.ruleFor(req)

	eligible := make(map[string]providers.Profile)
	for name, profile := range t.profiles {
		if profile.Satisfies(req) {
			eligible[name] = profile
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	// Rule preference order first, capability-filtered.
	ordered := make([]string, 0, len(eligible))
	placed := make(map[string]bool)
	for _, name := range rule.Providers {
		if _, ok := eligible[name]; ok && !placed[name] {
			ordered = append(ordered, name)
			placed[name] = true
		}
	}

	// Eligible providers the rule does not mention follow, by
	// descending weight; name ascending keeps ordering deterministic.
	rest := make([]string, 0, len(eligible))
	for name := range eligible {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		wi, wj := eligible[rest[i]].Weight, eligible[rest[j]].Weight
		if wi != wj {
			return wi > wj
		}
		return rest[i] < rest[j]
	})

	return append(ordered, rest...)
}

// ruleFor picks the single most specific rule matching the request.
func (t *Table) ruleFor(req *fetch.Request) *Rule {
	if r, ok := t.exact[req.Target]; ok {
		return r
	}
	if r, ok := t.byClass[req.Class]; ok {
		return r
	}
	return t.wildcard
}

// Profiles returns the profile set the table was built with.
func (t *Table) Profiles() map[string]providers.Profile {
	return t.profiles
}

// Router wraps the active Table behind an atomic pointer so resolution
// never takes a lock and configuration reload swaps the whole table in
// one step.
type Router struct {
	table atomic.Pointer[Table]
}

// NewRouter creates a router serving the given table.
func NewRouter(t *Table) *Router {
	r := &Router{}
	r.table.Store(t)
	return r
}

// Resolve delegates to the active table.
func (r *Router) Resolve(req *fetch.Request) []string {
	return r.table.Load().Resolve(req)
}

// Swap atomically replaces the active table. In-flight resolutions keep
// the snapshot they started with.
func (r *Router) Swap(t *Table) {
	r.table.Store(t)
	slog.Info("routing table swapped")
}

// Table returns the active table snapshot.
func (r *Router) Table() *Table {
	return r.table.Load()
}
