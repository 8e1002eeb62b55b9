package tokenward

import "errors"

var (
	// ErrInvalidToken reports a malformed, unsigned, badly-typed, or
	// signature-invalid token. Always a client error.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired reports a token whose signature verified but whose
	// expiry has passed. Distinguished from ErrInvalidToken for
	// observability; same client-facing outcome.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongCredentials reports failed authentication. Revoked tokens
	// surface as ErrWrongCredentials deliberately, so the API boundary
	// leaks no revocation-state information.
	ErrWrongCredentials = errors.New("wrong credentials")
	// ErrForbidden reports a valid, non-revoked token that lacks the role
	// an admin operation requires.
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable reports that the revocation store could not
	// answer. Surfaced as an internal error, never as "not revoked".
	ErrStoreUnavailable = errors.New("revocation store unavailable")
	// ErrRevocationDisabled reports a logout, revoke, or cleanup request
	// while revocation tracking is turned off by configuration.
	ErrRevocationDisabled = errors.New("revocation tracking disabled")
	// ErrUserNotFound reports a missed user directory lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDirectoryUnavailable reports that the user directory could not
	// answer a login or issuance lookup.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrEngineNotReady reports use of an engine that was not built, or a
	// directory-dependent operation on an engine built without one.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrTokenCreation reports a signing failure while minting a pair.
	// Treated as programmer error, not user input.
	ErrTokenCreation = errors.New("token creation failed")
)
