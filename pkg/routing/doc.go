// Package routing resolves a fetch request into an ordered,
// capability-filtered list of provider identifiers.
//
// Resolution applies exactly one rule per request, picked
// most-specific-first: an exact-target rule beats a content-class rule,
// which beats the wildcard default. Within the eligible provider set the
// matched rule's explicit preference order wins; providers the rule does
// not mention follow, ordered by descending profile weight. A provider
// lacking any capability the request requires is never placed in the
// resolved list.
//
// Tables are immutable once built; configuration reload builds a new
// Table and swaps it into the Router atomically.
package routing
