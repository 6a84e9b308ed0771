// Package domain holds the core entities of the forum economy (accounts,
// posts, discussions, tags), the typed forum events the rule engine consumes,
// and the repository interfaces the adapters implement.
package domain
