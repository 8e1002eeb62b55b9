// Package jwt implements the signed token codec and the claim model for
// tokenward. A [Manager] signs and verifies claim sets; [NewPair] mints the
// access/refresh claim pairs the engine issues.
//
// Claim sets are immutable value objects. Lifecycle state (revocation,
// rotation) is tracked externally by the revocation store, never by
// mutating a token.
package jwt
