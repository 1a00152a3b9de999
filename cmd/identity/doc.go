// Package identity holds the account record and its persistence boundary.
//
// An account is keyed by email (case-sensitive, surrounding whitespace
// trimmed) and carries an optional password credential plus the set of
// bearer tokens currently honored for it. Stores implement token-set
// mutation as a single atomic update per account so concurrent sign-ins
// never drop each other's tokens.
package identity
