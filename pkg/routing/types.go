package routing

import (
	"pagewell-hq/courier/pkg/fetch"
)

// RuleKind identifies a rule's specificity tier.
type RuleKind int

const (
	// KindExact matches one exact target identifier.
	KindExact RuleKind = iota

	// KindClass matches every target of one content class.
	KindClass

	// KindWildcard is the default rule; it always matches and is
	// consulted last.
	KindWildcard
)

// Rule maps a target-match predicate to an ordered provider preference
// list. Rules are read-only at request time; configuration reload
// replaces the whole table.
type Rule struct {
	// Kind is the specificity tier of the rule.
	Kind RuleKind

	// Target is the exact target identifier for KindExact rules.
	Target string

	// Class is the content class for KindClass rules.
	Class fetch.ContentClass

	// Providers is the ordered preference list of provider ids.
	Providers []string
}

// Matches reports whether the rule applies to the request.
func (r *Rule) Matches(req *fetch.Request) bool {
	switch r.Kind {
	case KindExact:
		return r.Target == req.Target
	case KindClass:
		return r.Class == req.Class
	case KindWildcard:
		return true
	}
	return false
}
