// Package rules implements the reward-currency rule engine: the mapping from
// forum events to balance mutations, the tag-based eligibility check and the
// mention-stripping content filter. It is the only place with real decision
// logic; settings, persistence, permissions and notification delivery are
// consumed through the interfaces in the domain package.
package rules
