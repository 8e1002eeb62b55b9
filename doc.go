// Package tokenward is a session/token authority for networked services:
// it issues, validates, rotates, and revokes paired access/refresh tokens,
// enforcing per-user and global invalidation policies backed by Redis.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], and value types. Flow orchestration lives under internal/ and
// is never exported; the token codec and the revocation store are public
// subpackages usable on their own.
//
// # Lifecycle model
//
// A token pair moves through Issued → Active → {Rotated | Revoked} →
// Expired. Claim sets are immutable bearer artifacts; only revocation
// facts are persisted, and only until their natural expiry. Every refresh
// consumes the presented refresh token exactly once: the consumed pair is
// denylisted before the new pair is returned, so reuse of a rotated-out
// refresh token always fails.
//
// # Revocation policy
//
// A single configuration flag, [RevocationConfig].Enabled, decides whether
// the revocation machinery is consulted at all. When disabled, tokens are
// valid purely by signature and expiry, and Logout, RevokeAll, RevokeUser,
// and Cleanup report [ErrRevocationDisabled] rather than silently no-op.
package tokenward
